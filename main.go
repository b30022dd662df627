package main

import (
	"github.com/axellelanca/shorty/cmd"
	_ "github.com/axellelanca/shorty/cmd/cli"    // Importe le package 'cli' pour que ses init() soient exécutés
	_ "github.com/axellelanca/shorty/cmd/server" // Importe le package 'server' pour que ses init() soient exécutés
)

func main() {
	// Exécuter la commande Cobra
	cmd.Execute()
}
