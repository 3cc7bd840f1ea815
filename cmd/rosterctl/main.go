// Command rosterctl runs roster imports and directory maintenance against the
// service database without going through HTTP.
package main

func main() {
	execute()
}
