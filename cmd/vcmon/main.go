package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"

	fx "github.com/robotalks/robocar/pkg/framework"
	"github.com/robotalks/robocar/pkg/telemetry"
)

var (
	mqttURL    = "mqtt://localhost:1883/robo/"
	outputJSON bool
)

func init() {
	if val := os.Getenv("ROBO_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print events in JSON.")
}

func printJSON(v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		log.Printf("encode: %v", err)
		return
	}
	log.Println(string(out))
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	m, err := telemetry.NewMonitor(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	runner := fx.NewRunner().HandleSignals()
	err = m.Watch(runner.Context, func(id string, meta *telemetry.Meta) {
		switch {
		case meta == nil:
			log.Printf("%s: gone", id)
		case outputJSON:
			printJSON(meta)
		default:
			log.Printf("%s: variant=%s link=%s", id, meta.Variant, meta.Link)
		}
	}, func(ev *telemetry.StatusEvent) {
		if outputJSON {
			printJSON(ev)
			return
		}
		log.Printf("%s: [%s] %s", ev.ControllerId, ev.Kind, ev.String())
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalln(err)
	}
}
