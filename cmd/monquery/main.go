// Monquery inspects query schemas from the command line.
//
// Usage:
//
//	# Show the filter, sort and window a query string produces
//	monquery explain --schema schema.yaml 'title=milk&sort=-title&limit=5'
//
//	# List the params, sort keys and paging keys of a schema
//	monquery params --schema schema.yaml
//
// Without --schema the built-in todos schema is used.
package main

func main() {
	Execute()
}
