package main

import "yoktez-backend/cmd/tezctl/cmd"

func main() {
	cmd.Execute()
}
