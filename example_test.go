package simrun_test

import (
	"context"
	"fmt"
	"log"

	"github.com/ecosysx/simrun"
	"github.com/ecosysx/simrun/engine/sidecar"
)

// Example demonstrates the full session lifecycle: start the engine,
// initialize it, step, and stop.
func Example() {
	eng := sidecar.New(sidecar.WithScript("services/mesa-sidecar/main.py"))

	sess, err := eng.Open()
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = sess.Stop(context.Background())
		_ = sess.Wait()
	}()

	if err := sess.Start(); err != nil {
		log.Fatal(err)
	}

	cfg := simrun.Config{MaxSteps: 100, PopulationSize: 50, Seed: 42}
	if err := sess.Init(cfg); err != nil {
		log.Fatal(err)
	}

	for ev := range sess.Events() {
		switch ev.Type {
		case simrun.EventStepped:
			fmt.Printf("tick %d/%d\n", ev.Tick, ev.PlannedSteps)
			if ev.Tick >= ev.PlannedSteps {
				_ = sess.Stop(context.Background())
			}
		case simrun.EventInitialized:
			_ = sess.Step(10)
		case simrun.EventStopped:
			fmt.Println("done:", ev.Reason)
		}
	}
}
