package main

import (
	"fmt"
	"os"

	"github.com/dargueta/compactor/archive"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(
			os.Stderr,
			"Print the header at the start of an archive.\nUsage: %s archive-file\n",
			os.Args[0])
		os.Exit(1)
	}

	archivePath := os.Args[1]
	data, err := os.ReadFile(archivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: `%v`: %s\n", archivePath, err)
		os.Exit(1)
	}

	header, err := archive.Probe(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Not an archive: %s\n", err)
		os.Exit(2)
	}

	fmt.Println(header)
	fmt.Printf("Archive is %d bytes, header is %d bytes.\n", len(data), header.EncodedSize())
}
