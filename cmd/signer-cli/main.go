package main

import "wallet-signer/cmd/signer-cli/cmd"

func main() {
	cmd.Execute()
}
