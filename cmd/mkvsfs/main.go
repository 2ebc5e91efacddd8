// Command mkvsfs formats a VSFS image file (§6), grounded on disko's
// cmd/main.go cli.App/Action structure.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/dargueta/vsfs"
	"github.com/dargueta/vsfs/mkfs"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "mkvsfs",
		Usage:     "Create and format a VSFS image file",
		ArgsUsage: "IMAGE_PATH",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:    "inodes",
				Aliases: []string{"i"},
				Value:   256,
				Usage:   "number of inodes to allocate",
			},
			&cli.UintFlag{
				Name:    "blocks",
				Aliases: []string{"b"},
				Value:   2048,
				Usage:   "total size of the image, in blocks",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "overwrite IMAGE_PATH if it already exists",
			},
			&cli.BoolFlag{
				Name:    "zero",
				Aliases: []string{"z"},
				Usage:   "zero-fill the image before formatting it",
			},
		},
		Action: runFormat,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("mkvsfs: %s", err)
	}
}

func runFormat(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("IMAGE_PATH is required", 1)
	}

	opts := mkfs.Options{
		NumInodes: uint32(c.Uint("inodes")),
		NumBlocks: uint32(c.Uint("blocks")),
		Zero:      c.Bool("zero"),
	}
	if err := mkfs.Validate(opts); err != nil {
		return cli.Exit(fmt.Sprintf("invalid options:\n%s", err), 1)
	}

	flags := os.O_RDWR | os.O_CREATE
	if !c.Bool("force") {
		flags |= os.O_EXCL
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		if os.IsExist(err) {
			return cli.Exit(fmt.Sprintf("%s already exists; pass -f to overwrite it", path), 1)
		}
		return cli.Exit(err.Error(), 1)
	}
	defer f.Close()

	size := mkfs.ImageSize(opts.NumBlocks)
	if err := f.Truncate(size); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	buf := make([]byte, size)
	if err := mkfs.Format(buf, opts); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if _, err := f.WriteAt(buf, 0); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := f.Sync(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Printf(
		"formatted %s: %d blocks (%d bytes), %d inodes, magic 0x%08x\n",
		path, opts.NumBlocks, size, opts.NumInodes, vsfs.Magic,
	)
	return nil
}
