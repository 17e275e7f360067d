package main

import (
	"flag"

	"github.com/golang/glog"

	"github.com/vish/mleak/internal/stress"
)

func main() {
	// No flags of our own; this only enables glog's.
	flag.Parse()
	defer glog.Flush()

	res, err := stress.Run(stress.DefaultConfig())
	if err != nil {
		glog.Exitf("mleak: %v", err)
	}
	glog.Infof("Leaked %d blocks (%d bytes), log written to %s", res.Allocations, res.LeakedBytes, res.LogPath)
}
