// Command spendctl is the spendwise admin CLI.
package main

func main() {
	Execute()
}
