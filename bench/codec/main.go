package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"

	"github.com/amqpbridge-io/amqpbridge/bench/common"
	"github.com/amqpbridge-io/amqpbridge/bridge"
	"github.com/amqpbridge-io/amqpbridge/bridge/message"
)

func main() {
	app := cli.NewApp()
	app.Name = "amqpbridge-bench-codec"
	app.Usage = "Benchmark tool for AMQP message encoding and decoding"
	app.Version = "1.0.0"
	app.Flags = getFlags()
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "load configuration from `FILE`",
		},
		cli.IntFlag{
			Name:  "messages, n",
			Usage: "Total number of messages to encode and decode (overrides bench.messages)",
		},
		cli.IntFlag{
			Name:  "body-size, bs",
			Usage: "Size of each message body in bytes (overrides bench.body.size)",
		},
		cli.IntFlag{
			Name:  "properties, p",
			Usage: "Number of user properties per message (overrides bench.properties)",
		},
		cli.IntFlag{
			Name:  "concurrent, c",
			Usage: "Number of concurrent codec goroutines",
			Value: 1,
		},
		cli.StringFlag{
			Name:  "output, o",
			Usage: "Output format: text, json",
			Value: "text",
		},
	}
}

func run(c *cli.Context) error {
	config, err := bridge.NewConfig(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("messages") {
		config.Bench.Messages = c.Int("messages")
	}
	if c.IsSet("body-size") {
		config.Bench.BodySize = c.Int("body-size")
	}
	if c.IsSet("properties") {
		config.Bench.Properties = c.Int("properties")
	}
	if err := config.Validate(); err != nil {
		return err
	}
	concurrent := c.Int("concurrent")
	if concurrent <= 0 {
		concurrent = 1
	}
	config.LogSilent = true
	b := bridge.New(config)

	// Pre-generate messages (NOT timed)
	fmt.Printf("Pre-generating %s messages with %s bodies and %d properties...\n",
		humanize.Comma(int64(config.Bench.Messages)),
		humanize.IBytes(uint64(config.Bench.BodySize)), config.Bench.Properties)
	messages, err := common.PreGenerateMessages(config.Bench.Messages,
		config.Bench.BodySize, config.Bench.Properties)
	if err != nil {
		return fmt.Errorf("failed to generate messages: %w", err)
	}
	defer common.DestroyMessages(messages)

	fmt.Printf("Starting benchmark with %d concurrent goroutine(s)...\n", concurrent)
	fmt.Println("---")

	encodeStats := common.NewStats("Encode")
	encodeStats.Start()
	wire := runEncode(b, messages, concurrent, encodeStats)
	encodeStats.Stop()

	decodeStats := common.NewStats("Decode")
	decodeStats.Start()
	runDecode(b, wire, concurrent, decodeStats)
	decodeStats.Stop()

	return common.PrintResults(os.Stdout, c.String("output"), encodeStats, decodeStats)
}

// partition calls fn on concurrent goroutines, each with a contiguous index
// range covering [0, total).
func partition(total, concurrent int, fn func(start, end int)) {
	var wg sync.WaitGroup
	perWorker := total / concurrent
	remainder := total % concurrent
	for i := 0; i < concurrent; i++ {
		start := i * perWorker
		end := start + perWorker
		if i == concurrent-1 {
			end += remainder
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}

func runEncode(b *bridge.Bridge, messages []*message.Message, concurrent int,
	stats *common.Stats) [][]byte {

	wire := make([][]byte, len(messages))
	partition(len(messages), concurrent, func(start, end int) {
		for i := start; i < end; i++ {
			encodeTime := time.Now()
			out, err := b.Encode(messages[i])
			latency := time.Since(encodeTime)

			if err != nil {
				stats.RecordError()
				continue
			}

			stats.RecordLatency(latency)
			stats.RecordMessage(len(out))
			wire[i] = out
		}
	})
	return wire
}

func runDecode(b *bridge.Bridge, wire [][]byte, concurrent int, stats *common.Stats) {
	partition(len(wire), concurrent, func(start, end int) {
		for i := start; i < end; i++ {
			if wire[i] == nil {
				continue
			}
			decodeTime := time.Now()
			msg, err := b.Decode(wire[i])
			latency := time.Since(decodeTime)

			if err != nil {
				stats.RecordError()
				continue
			}

			stats.RecordLatency(latency)
			stats.RecordMessage(len(wire[i]))
			msg.Destroy()
		}
	})
}
