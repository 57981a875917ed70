package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"errors"
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/robocar/pkg/clock"
	fx "github.com/robotalks/robocar/pkg/framework"
	"github.com/robotalks/robocar/pkg/vehicle"
)

func init() {
	vehicle.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := vehicle.LoadConfig()
	if err != nil {
		glog.Exit(err)
	}
	v, err := conf.NewVehicle()
	if err != nil {
		glog.Exit(err)
	}
	runner := fx.NewRunner().HandleSignals()
	err = v.NewLoop(clock.NewMonotonic()).Run(runner.Context)
	if cerr := v.Close(); cerr != nil {
		glog.Errorf("close: %v", cerr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		glog.Exit(err)
	}
	glog.Info("vehicle stopped")
}
