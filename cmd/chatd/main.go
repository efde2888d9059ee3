// chatd runs the development chat server. It speaks the same wire
// protocol the chat package consumes and exists for local testing only.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatsync/internal/config"
	"chatsync/internal/devserver"
)

func main() {
	cfg := config.Load()

	hub := devserver.NewHub()
	go hub.Run()

	http.HandleFunc("/ws", hub.Handler())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	addr := cfg.Host + ":" + cfg.Port
	go func() {
		fmt.Printf("🚀 Dev chat server starting on %s...\n", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			if err != http.ErrServerClosed {
				log.Fatalf("ListenAndServe: %v", err)
			}
		}
	}()

	<-stop

	fmt.Println("\nShutdown signal received. Cleaning up...")
	hub.Shutdown()

	time.Sleep(1 * time.Second)
	fmt.Println("Graceful shutdown complete. Goodnight!")
}
