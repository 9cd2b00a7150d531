// plaza-bot drives headless client sessions against a running server. It is
// the load and soak tool used during development: each bot joins the room,
// walks to random destinations, and occasionally chats.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"plaza-server/client"
	"plaza-server/config"
	"plaza-server/logging"
	"plaza-server/navmesh"
)

var (
	serverURL string
	botCount  int
	duration  time.Duration
	chatty    bool
)

func main() {
	root := &cobra.Command{
		Use:   "plaza-bot",
		Short: "Run headless wandering clients against a plaza server",
		RunE:  run,
	}
	root.Flags().StringVar(&serverURL, "url", "ws://localhost:8080/ws", "websocket endpoint")
	root.Flags().IntVar(&botCount, "count", 1, "number of concurrent bots")
	root.Flags().DurationVar(&duration, "duration", 0, "how long to run (0 = until interrupted)")
	root.Flags().BoolVar(&chatty, "chat", false, "bots occasionally post chat lines")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logging.New("plaza-bot.log")
	defer log.Sync()

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
		case <-timeoutCh(duration):
		}
		close(stop)
	}()

	var wg sync.WaitGroup
	for i := 0; i < botCount; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := fmt.Sprintf("bot-%d", n)
			if err := runBot(name, stop, log); err != nil {
				log.Warnf("%s: %v", name, err)
			}
		}(i)
		// Stagger joins so the room does not see a connect burst.
		time.Sleep(50 * time.Millisecond)
	}
	wg.Wait()
	return nil
}

func timeoutCh(d time.Duration) <-chan time.Time {
	if d <= 0 {
		return nil
	}
	return time.After(d)
}

func runBot(name string, stop <-chan struct{}, log *zap.SugaredLogger) error {
	nav := navmesh.New(config.WORLD_EXTENT, navmesh.DefaultObstacles)
	sess, err := client.Connect(client.Options{
		URL:  serverURL,
		Name: name,
		Log:  log,
		Nav:  nav,
	})
	if err != nil {
		return err
	}
	defer sess.Close()
	log.Infof("%s joined as %s (avatar %s)", name, sess.Self().ID, sess.Self().Avatar)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	frame := time.NewTicker(16 * time.Millisecond)
	defer frame.Stop()
	wander := time.NewTicker(3*time.Second + time.Duration(rng.Intn(2000))*time.Millisecond)
	defer wander.Stop()

	for {
		select {
		case <-stop:
			return nil
		case now := <-frame.C:
			sess.Update(now)
			if sess.Disconnected() {
				return fmt.Errorf("disconnected")
			}
		case <-wander.C:
			x := (rng.Float64()*2 - 1) * config.WORLD_EXTENT
			z := (rng.Float64()*2 - 1) * config.WORLD_EXTENT
			if err := sess.Mover().SetDestination(time.Now(), x, z); err != nil {
				log.Warnf("%s: destination (%.1f, %.1f): %v", name, x, z, err)
			}
			if chatty && rng.Intn(4) == 0 {
				sess.SendChat(fmt.Sprintf("wandering to (%.0f, %.0f)", x, z))
			}
		case ev := <-sess.Events():
			if ev.Kind == client.EventDisconnected {
				return fmt.Errorf("disconnected")
			}
		}
	}
}
