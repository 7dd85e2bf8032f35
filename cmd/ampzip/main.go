// Command ampzip builds and inspects amplification archives.
package main

func main() {
	execute()
}
