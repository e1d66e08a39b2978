package main

import "github.com/ValentinKolb/redispool/cmd"

func main() {
	cmd.Execute()
}
