package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/amqpbridge-io/amqpbridge/bridge"
	"github.com/amqpbridge-io/amqpbridge/bridge/codec"
)

const version = "0.1.0"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "amqpbridge"
	app.Usage = "Convert telemetry messages to and from AMQP 1.0 message sections"
	app.Version = version
	app.Flags = getFlags()
	app.Commands = []cli.Command{
		{
			Name:      "encode",
			Usage:     "encode a YAML or JSON message document to AMQP bytes",
			ArgsUsage: " ",
			Flags:     fileFlags(),
			Action:    encodeAction,
		},
		{
			Name:      "decode",
			Usage:     "decode AMQP bytes to a message document",
			ArgsUsage: " ",
			Flags:     fileFlags(),
			Action:    decodeAction,
		},
		{
			Name:      "inspect",
			Usage:     "print the AMQP section sizes of a message document",
			ArgsUsage: " ",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "in, i",
					Usage: "read the message document from `FILE`",
				},
			},
			Action: inspectAction,
		},
	}
	return app
}

func getFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load configuration from `FILE`",
		},
		cli.StringFlag{
			Name:  "level, l",
			Usage: "logging level [debug|info|warn|error]",
		},
		cli.StringFlag{
			Name:  "format, f",
			Usage: "decoded document format [yaml|json]",
		},
		cli.BoolFlag{
			Name:  "content-properties",
			Usage: "also decode content-type and content-encoding",
		},
	}
}

func fileFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "in, i",
			Usage: "read input from `FILE`",
		},
		cli.StringFlag{
			Name:  "out, o",
			Usage: "write output to `FILE`",
		},
	}
}

// newBridge loads the configuration file and applies command line overrides.
func newBridge(c *cli.Context) (*bridge.Bridge, error) {
	config, err := bridge.NewConfig(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	if level := c.GlobalString("level"); level != "" {
		l, err := bridge.GetLogLevel(level)
		if err != nil {
			return nil, err
		}
		config.LogLevel = l
	}
	if format := c.GlobalString("format"); format != "" {
		config.OutputFormat = format
	}
	if c.GlobalBool("content-properties") {
		config.Decode.ContentProperties = true
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return bridge.New(config), nil
}

func requireFiles(c *cli.Context, names ...string) error {
	for _, name := range names {
		if c.String(name) == "" {
			return fmt.Errorf("missing required flag --%s", name)
		}
	}
	return nil
}

func encodeAction(c *cli.Context) error {
	if err := requireFiles(c, "in", "out"); err != nil {
		return err
	}
	b, err := newBridge(c)
	if err != nil {
		return err
	}
	layout, err := b.EncodeFile(c.String("in"), c.String("out"))
	if err != nil {
		return errors.Wrap(err, "failed to encode message")
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s to %s\n",
		humanize.IBytes(uint64(layout.Total())), c.String("out"))
	return nil
}

func decodeAction(c *cli.Context) error {
	if err := requireFiles(c, "in", "out"); err != nil {
		return err
	}
	b, err := newBridge(c)
	if err != nil {
		return err
	}
	doc, err := b.DecodeFile(c.String("in"), c.String("out"))
	if err != nil {
		return errors.Wrap(err, "failed to decode message")
	}
	fmt.Fprintf(c.App.Writer, "Wrote message %s with %s properties to %s\n",
		valueOr(doc.MessageID, "<none>"), humanize.Comma(int64(len(doc.Properties))),
		c.String("out"))
	return nil
}

func inspectAction(c *cli.Context) error {
	if err := requireFiles(c, "in"); err != nil {
		return err
	}
	b, err := newBridge(c)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(c.String("in"))
	if err != nil {
		return errors.Wrap(err, "failed to read message document")
	}
	doc, err := bridge.ParseDocument(raw)
	if err != nil {
		return err
	}
	_, layout, err := b.EncodeDocument(doc)
	if err != nil {
		return errors.Wrap(err, "failed to encode message")
	}
	return printLayout(c.App.Writer, layout)
}

func printLayout(out io.Writer, layout codec.Layout) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SECTION\tBYTES\tSIZE")
	rows := []struct {
		name string
		size int
	}{
		{"properties", layout.Properties},
		{"application-properties", layout.ApplicationProperties},
		{"data", layout.Data},
		{"total", layout.Total()},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%d\t%s\n", row.name, row.size, humanize.IBytes(uint64(row.size)))
	}
	return w.Flush()
}

func valueOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
