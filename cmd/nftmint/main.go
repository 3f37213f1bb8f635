package main

import "github.com/pilacorp/go-nft-sdk/cmd/nftmint/cmd"

func main() {
	cmd.Execute()
}
