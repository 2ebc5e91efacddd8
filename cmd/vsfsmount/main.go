// Command vsfsmount mounts a VSFS image at a directory using FUSE (§6).
// It owns the image's mapping for the lifetime of the mount (§5: scoped
// acquisition at mount, release at unmount) and otherwise does nothing but
// wire fuseadapter.Root into go-fuse.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/dargueta/vsfs"
	"github.com/dargueta/vsfs/bitmap"
	"github.com/dargueta/vsfs/fuseadapter"
	"github.com/dargueta/vsfs/image"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "vsfsmount",
		Usage:     "Mount a VSFS image as a FUSE filesystem",
		ArgsUsage: "IMAGE_PATH MOUNTPOINT",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "log every FUSE request"},
		},
		Action: runMount,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("vsfsmount: %s", err)
	}
}

func runMount(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return cli.Exit("IMAGE_PATH and MOUNTPOINT are both required", 1)
	}
	imagePath := c.Args().Get(0)
	mountpoint := c.Args().Get(1)

	mapped, derr := image.Open(imagePath)
	if derr != nil {
		return cli.Exit(fmt.Sprintf("opening %s: %s", imagePath, derr), 1)
	}
	defer mapped.Close()

	vol, err := mountVolume(mapped)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	root := fuseadapter.NewRoot(vol)
	server, err := fs.Mount(mountpoint, root, &fs.Options{
		MountOptions: fuse.MountOptions{Debug: c.Bool("debug")},
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("mounting at %s: %s", mountpoint, err), 1)
	}

	fmt.Printf("vsfsmount: %s mounted at %s\n", imagePath, mountpoint)
	server.Wait()
	return nil
}

// mountVolume wraps an opened image's superblock-declared bitmaps and hands
// back a ready-to-use *vsfs.Volume, the same construction vsfstest uses for
// an in-memory image.
func mountVolume(mapped *image.Mapped) (*vsfs.Volume, error) {
	sbBlock := mapped.Block(vsfs.SuperblockNum)
	sb := vsfs.ReadSuperblock(sbBlock)
	if !sb.Present() {
		return nil, fmt.Errorf("not a VSFS image: bad magic 0x%08x", sb.Magic)
	}

	inodeBitmap := bitmap.Wrap(mapped.Block(vsfs.InodeBitmapNum), int(sb.NumInodes))
	dataBitmap := bitmap.Wrap(mapped.Block(vsfs.DataBitmapNum), int(sb.NumBlocks))
	return vsfs.NewVolume(mapped, &inodeBitmap, &dataBitmap), nil
}
