//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

const (
	SERVER_BINARY = "../bin/chatd"
	SERVER_PATH   = "../cmd/chatd/main.go"
	CLIENT_BINARY = "../bin/chat"
	CLIENT_PATH   = "../cmd/chat/main.go"
)

func Build() error {
	mg.Deps(BuildServer, BuildClient)
	return nil
}

func BuildServer() error {
	fmt.Println("🔨 Building dev server binary...")
	return runCmd("go", "build", "-o", SERVER_BINARY, SERVER_PATH)
}

func BuildClient() error {
	fmt.Println("🔨 Building client binary...")
	return runCmd("go", "build", "-o", CLIENT_BINARY, CLIENT_PATH)
}

func Test() error {
	fmt.Println("🧪 Running tests...")
	return runCmd("go", "test", "-race", "../...")
}

func Clean() {
	fmt.Println("🧹 Cleaning up...")
	os.Remove(SERVER_BINARY)
	os.Remove(CLIENT_BINARY)
}

func runCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
