// Command gokafka-bench is a small end-to-end driver: it loads a YAML
// config, builds a gokafka.Client, and walks
// ApiVersions -> Metadata -> Produce -> Fetch against one topic/partition,
// logging what it sees. It doubles as a smoke test for a real cluster and
// as a worked example of wiring the library's health/metrics surface into
// a process.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/trivago/gokafka"
	"github.com/trivago/gokafka/healthcheck"
)

func main() {
	configPath := flag.String("config", "gokafka-bench.yaml", "path to a YAML client config")
	topic := flag.String("topic", "gokafka-bench", "topic to produce to and fetch from")
	partition := flag.Int("partition", 0, "partition to use")
	listenAddr := flag.String("listen", ":8008", "address for /metrics and /kafka health checks")
	flag.Parse()

	log := logrus.New()
	if _, err := maxprocs.Set(maxprocs.Logger(log.Printf)); err != nil {
		log.Warnf("could not set GOMAXPROCS: %s", err)
	}

	cfg, err := gokafka.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %s", err)
	}
	client, err := gokafka.NewClient(cfg, gokafka.NewLogrusLogger(log))
	if err != nil {
		log.Fatalf("client: %s", err)
	}

	healthcheck.Configure(*listenAddr)
	healthcheck.RegisterClusterHealth(client, *topic, cfg.Timeout())
	healthcheck.Handle("/metrics", promhttp.HandlerFor(gokafka.MetricsGatherer(), promhttp.HandlerOpts{}))
	go func() {
		log.Infof("serving /metrics and /kafka on %s", *listenAddr)
		if err := healthcheck.Start(); err != nil && err != http.ErrServerClosed {
			log.Errorf("health server: %s", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, client, log, *topic, int32(*partition)); err != nil {
		log.Fatalf("run: %s", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *gokafka.Client, log *logrus.Logger, topic string, partition int32) *gokafka.Error {
	if _, err := client.Metadata(ctx, topic); err != nil {
		return err
	}
	log.Infof("metadata ok for topic %q", topic)

	producer := client.Producer()
	result, err := producer.Send(ctx, topic, partition, gokafka.AcksLeader, 5000, gokafka.CompressionNone,
		[]*gokafka.Message{{Value: []byte("hello from gokafka-bench")}})
	if err != nil {
		return err
	}
	log.Infof("produced at offset %d", result.Offset)

	consumer := client.Consumer()
	fetched, err := consumer.Fetch(ctx, topic, partition, result.Offset, 1000, 1, 1<<20)
	if err != nil {
		return err
	}
	log.Infof("fetched %d message(s), highwater=%d", len(fetched.Messages), fetched.HighwaterMarkOffset)

	for _, nf := range client.NonfatalErrors() {
		log.Warnf("nonfatal: %s", nf.Message)
	}
	return nil
}
