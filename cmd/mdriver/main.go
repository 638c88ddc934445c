// Command mdriver replays allocator trace files against the boundary-tag allocator, checks
// every payload it hands out, and reports space utilization and throughput per trace.
package main

func main() {
	execute()
}
