// Command fnhost serves the account functions behind the request bridge
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/fx"

	"github.com/toyz/fnbridge/pkg/host"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("FNHOST_CONFIG"), "Path to a YAML configuration file")
		adapter    = flag.String("adapter", "", "Web server adapter to use (echo, gin, or fiber)")
		port       = flag.String("port", "", "Port to run the server on (default 7071)")
		help       = flag.Bool("help", false, "Show help information")
	)
	flag.Parse()

	if *help {
		fmt.Println("fnhost - function host with authentication, authorization and parameter binding")
		fmt.Println("")
		fmt.Println("Usage:")
		fmt.Printf("  %s [options]\n", os.Args[0])
		fmt.Println("")
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println("")
		fmt.Println("Examples:")
		fmt.Printf("  %s -adapter=echo -port=7071\n", os.Args[0])
		fmt.Printf("  %s -adapter=fiber -config=fnhost.yaml\n", os.Args[0])
		os.Exit(0)
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	hostConfig := host.LoadConfig()
	if *adapter != "" {
		hostConfig.Adapter = *adapter
	}
	if *port != "" {
		hostConfig.Port = *port
	}

	fx.New(appOptions(cfg, hostConfig)).Run()
}
