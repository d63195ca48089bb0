package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"agromitra/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	svc := service.NewService(service.Bootstrap, os.Stdin, os.Stdout)
	if err := svc.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
