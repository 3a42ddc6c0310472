// Package telemetry publishes periodic state snapshots to an MQTT broker so
// off-couch dashboards can follow along without polling the HTTP API.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/taillades/couch/internal/model"
)

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Println("[telemetry] connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Printf("[telemetry] MQTT connection lost: %v", err)
}

// Publisher pushes snapshots to one topic at a fixed interval.
type Publisher struct {
	client   mqtt.Client
	topic    string
	interval time.Duration
	snapshot func() model.Snapshot

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewPublisher configures an MQTT client for the broker. The connection is
// established in Start and automatically retried after loss.
func NewPublisher(broker, clientID, topic string, interval time.Duration, snapshot func() model.Snapshot) *Publisher {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	return &Publisher{
		client:   mqtt.NewClient(opts),
		topic:    topic,
		interval: interval,
		snapshot: snapshot,
		stop:     make(chan struct{}),
	}
}

// Start connects to the broker and begins the publish loop.
func (p *Publisher) Start() error {
	token := p.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		// Connect keeps retrying in the background; the loop starts
		// regardless so publishes resume once the broker appears.
		log.Printf("[telemetry] broker not reachable yet, retrying in background")
	} else if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	p.wg.Add(1)
	go p.loop()
	return nil
}

func (p *Publisher) loop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
		}
		if !p.client.IsConnected() {
			continue
		}
		payload, err := json.Marshal(p.snapshot())
		if err != nil {
			log.Printf("[telemetry] snapshot marshal err: %v", err)
			continue
		}
		p.client.Publish(p.topic, 0, false, payload)
	}
}

// Stop halts the publish loop and disconnects from the broker.
func (p *Publisher) Stop() {
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
	p.wg.Wait()
	p.client.Disconnect(250)
}
