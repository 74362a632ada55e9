package main

import (
	"fmt"
	"os"

	"github.com/ostafen/trailscan/cmd/cmd"
	"github.com/ostafen/trailscan/internal/env"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] == "help" || os.Args[1] == "--help" || os.Args[1] == "-h" {
		PrintLogo()
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func PrintLogo() {
	fmt.Println(" _             _ _")
	fmt.Println("| |_ _ __ __ _(_) |___  ___ __ _ _ __")
	fmt.Println("| __| '__/ _` | | / __|/ __/ _` | '_ \\")
	fmt.Println("| |_| | | (_| | | \\__ \\ (_| (_| | | | |")
	fmt.Println(" \\__|_|  \\__,_|_|_|___/\\___\\__,_|_| |_|")
	fmt.Println()
	fmt.Println("Appended data detection tool")
	fmt.Println()
	fmt.Printf("Version:   %s\n", env.Version)
	fmt.Printf("Commit:    %s\n", env.CommitHash)
	fmt.Printf("Build Time: %s\n", env.BuildTime)
	fmt.Println(" ")
}
