package main

import (
	"context"
	"log"
	"time"

	"campus-collab/simulator"
)

func main() {
	config := simulator.SimConfig{
		NumUsers:         20,
		SimulationTime:   5 * time.Minute,
		MessageFrequency: 6.0, // messages per user per minute
		ReadFrequency:    4.0,
		PollFrequency:    10.0,
		ZipfS:            1.07,
		APIBaseURL:       "http://localhost:8080",
	}

	log.Printf("Starting simulation with configuration:")
	log.Printf("- API URL: %s", config.APIBaseURL)
	log.Printf("- Number of users: %d", config.NumUsers)
	log.Printf("- Simulation time: %v", config.SimulationTime)
	log.Printf("- Message frequency: %.2f msgs/user/min", config.MessageFrequency)
	log.Printf("- Read frequency: %.2f reads/user/min", config.ReadFrequency)
	log.Printf("- Poll frequency: %.2f polls/user/min", config.PollFrequency)
	log.Printf("- Zipf parameter: %.2f", config.ZipfS)

	sim := simulator.NewSimulator(config)
	ctx, cancel := context.WithTimeout(context.Background(), config.SimulationTime)
	defer cancel()

	if err := sim.Run(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	metrics := sim.GetMetrics()
	log.Printf("\nSimulation completed. Final metrics:")
	log.Printf("- Total users: %d", metrics.TotalUsers)
	log.Printf("- Messages sent: %d", metrics.TotalMessages)
	log.Printf("- Threads read: %d", metrics.TotalReads)
	log.Printf("- Unread polls: %d", metrics.TotalPolls)
	log.Printf("- Average latency: %v", metrics.AverageLatency)
	log.Printf("- Error count: %d", metrics.ErrorCount)
	log.Printf("- Requests per second: %.2f", metrics.RequestsPerSecond)
}
