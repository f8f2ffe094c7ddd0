package main

import (
	"fmt"
	"time"

	"github.com/samuelfneumann/progressbar"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/tensor"

	"github.com/manipenv/manipenv/environment/envconfig"
	"github.com/manipenv/manipenv/environment/planarsim"
)

func main() {
	var seed uint64 = 192382

	// Create the environment config with default parameters
	envConf := envconfig.NewConfig(envconfig.Push, true, true, true, 250, 3,
		2, seed)

	e, err := envConf.Create()
	if err != nil {
		panic(err)
	}

	src := rand.NewSource(seed)
	rng := distuv.Uniform{
		Min: -planarsim.MaxForce,
		Max: planarsim.MaxForce,
		Src: src,
	}

	episodes := 10
	bar := progressbar.New(50, episodes, time.Second, true)
	bar.Display()

	actionDim := e.ActionSpec().Shape[0]
	for episode := 0; episode < episodes; episode++ {
		step, err := e.Reset()
		if err != nil {
			panic(err)
		}

		episodeReturn := 0.0
		for !step.Last() {
			action := make([]float32, actionDim)
			for i := range action {
				action[i] = float32(rng.Rand())
			}

			step, err = e.Step(tensor.New(tensor.WithShape(actionDim),
				tensor.WithBacking(action)))
			if err != nil {
				panic(err)
			}
			episodeReturn += step.Reward
		}

		bar.Increment()
		fmt.Printf("\nEpisode %v  |  Steps: %v  |  Return: %.2f", episode,
			step.Number, episodeReturn)
	}
	bar.Close()
}
