package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/gabriel-vasile/mimetype"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"golang.org/x/image/bmp"

	"github.com/kailith/gmextract/catalog"
	"github.com/kailith/gmextract/gm8"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

var commonFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "narrate extraction progress",
	},
	&cli.BoolFlag{
		Name:  "lenient",
		Usage: "read past non-empty extension/trigger/constant sections",
	},
}

func readGame(c *cli.Context) ([]byte, *gm8.Game, error) {
	if c.Bool("verbose") {
		log.SetLevel(log.DebugLevel)
	}

	path := c.Args().First()

	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, nil, err
	}
	if mime.Extension() != ".exe" {
		return nil, nil, fmt.Errorf("%s: not an executable (%s)", path, mime)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	g := &gm8.Game{
		Lenient: c.Bool("lenient"),
		Logger:  log.Log,
	}
	if err := g.UnmarshalBinary(b); err != nil {
		return nil, nil, err
	}

	return b, g, nil
}

func assetTable(w io.Writer, g *gm8.Game) {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding(" ")
	table.SetNoWhiteSpace(true)

	table.SetHeader([]string{"Slot", "Kind", "Name", "Detail", "Size"})

	for i, s := range g.Sounds {
		if s == nil {
			table.Append([]string{strconv.Itoa(i), "sound", "-", "", ""})
			continue
		}
		table.Append([]string{
			strconv.Itoa(i), "sound", s.Name, s.FileName,
			strconv.Itoa(len(s.Data)),
		})
	}

	for i, s := range g.Sprites {
		if s == nil {
			table.Append([]string{strconv.Itoa(i), "sprite", "-", "", ""})
			continue
		}
		var size int
		for _, f := range s.Frames {
			size += len(f)
		}
		table.Append([]string{
			strconv.Itoa(i), "sprite", s.Name,
			fmt.Sprintf("%dx%d, %d frames", s.Width, s.Height, s.FrameCount),
			strconv.Itoa(size),
		})
	}

	table.Render()
}

func info(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	_, g, err := readGame(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	fmt.Printf("%s: %d sound slots, %d sprite slots\n\n", c.Args().First(), len(g.Sounds), len(g.Sprites))
	assetTable(os.Stdout, g)

	return nil
}

func writeFrame(path string, s *gm8.Sprite, frame []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	m := &image.RGBA{
		Pix:    frame,
		Stride: int(s.Width) * 4,
		Rect:   image.Rect(0, 0, int(s.Width), int(s.Height)),
	}

	return bmp.Encode(f, m)
}

func extract(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	_, g, err := readGame(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	dir := c.String("directory")

	for _, s := range g.Sounds {
		if s == nil || s.Data == nil {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, s.Name+s.FileType), s.Data, 0o644); err != nil {
			return cli.Exit(err, 1)
		}
	}

	for _, s := range g.Sprites {
		if s == nil {
			continue
		}
		for i, frame := range s.Frames {
			path := filepath.Join(dir, fmt.Sprintf("%s_%d.bmp", s.Name, i))
			if err := writeFrame(path, s, frame); err != nil {
				return cli.Exit(err, 1)
			}
		}
	}

	return nil
}

func index(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	exe, g, err := readGame(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	cat, err := catalog.New(c.String("database"), func(w io.Writer, m image.Image) error {
		return png.Encode(w, m)
	})
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer cat.Close()

	if err := cat.Index(c.Args().First(), exe, g); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func list(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	cat, err := catalog.New(c.String("database"), nil)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer cat.Close()

	entries, err := cat.Assets(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")

	table.SetHeader([]string{"Slot", "Kind", "Name", "Detail", "Size", "SHA1"})

	for _, e := range entries {
		table.Append([]string{
			strconv.Itoa(e.Slot), e.Kind, e.Name, e.Detail,
			strconv.FormatInt(e.Size, 10), e.SHA1,
		})
	}

	table.Render()

	return nil
}

func main() {
	log.SetHandler(clihandler.Default)

	app := cli.NewApp()

	app.Name = "gmextract"
	app.Usage = "GameMaker 8.0 executable asset extraction utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.WithError(err).Fatal("getwd")
	}

	databaseFlag := &cli.StringFlag{
		Name:    "database",
		Aliases: []string{"D"},
		Usage:   "catalog database file",
		Value:   "gmextract.db",
	}

	app.Commands = []*cli.Command{
		{
			Name:      "info",
			Usage:     "List the assets embedded in an executable",
			ArgsUsage: "FILE",
			Action:    info,
			Flags:     commonFlags,
		},
		{
			Name:      "extract",
			Usage:     "Extract embedded sounds and sprite frames to files",
			ArgsUsage: "FILE",
			Action:    extract,
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:    "directory",
					Aliases: []string{"d"},
					Usage:   "output directory",
					Value:   cwd,
				},
			}, commonFlags...),
		},
		{
			Name:      "index",
			Usage:     "Index the assets embedded in an executable into the catalog",
			ArgsUsage: "FILE",
			Action:    index,
			Flags:     append([]cli.Flag{databaseFlag}, commonFlags...),
		},
		{
			Name:      "list",
			Usage:     "List previously indexed assets from the catalog",
			ArgsUsage: "FILE",
			Action:    list,
			Flags:     []cli.Flag{databaseFlag},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("gmextract")
	}
}
