package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Example_basicUsage demonstrates basic metrics configuration.
func Example_basicUsage() {
	// Create a separate registry for this test
	testRegistry := prometheus.NewRegistry()
	registry := NewRegistry(testRegistry)

	// Example of accessing metrics
	registry.TasksDispatched.WithLabelValues("default").Add(3)
	registry.InstantSubmitted.WithLabelValues("default").Inc()
	registry.TasksCompleted.WithLabelValues("worker-pool").Add(4)

	fmt.Println("Metrics updated successfully")

	// Output:
	// Metrics updated successfully
}

// Example_customRegistry demonstrates using a custom Prometheus registry.
func Example_customRegistry() {
	customRegistry := prometheus.NewRegistry()

	config := Config{
		Enabled:  true,
		Registry: customRegistry,
	}

	registry := NewRegistry(config.Registry)
	registry.SchedulerTicks.WithLabelValues("custom").Add(12)
	registry.EntriesRegistered.WithLabelValues("custom").Set(2)

	fmt.Printf("Custom registry enabled: %v\n", config.Enabled)
	fmt.Println("Custom registry configured with gotick metrics")

	// Output:
	// Custom registry enabled: true
	// Custom registry configured with gotick metrics
}

// Example_configuration demonstrates the default metrics configuration.
func Example_configuration() {
	defaultConfig := DefaultConfig()
	fmt.Printf("Default enabled: %v\n", defaultConfig.Enabled)

	customConfig := Config{Enabled: false}
	fmt.Printf("Custom enabled: %v\n", customConfig.Enabled)

	// Output:
	// Default enabled: true
	// Custom enabled: false
}
