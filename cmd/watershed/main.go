// Command watershed delineates upstream watersheds for gauging stations.
package main

import "github.com/hydrograph/watershed/internal/cli"

func main() {
	cli.Execute()
}
