// Command crawl walks a website and downloads every image its pages reference.
//
// Usage:
//
//	crawl https://example.com --max-pages 50 --workers 4 --out images
//
// See --help for all options.
package main

func main() {
	Execute()
}
