package main

import (
	"time"

	"github.com/panjf2000/gnet/v2"

	"github.com/lixenwraith/asynclog"
	"github.com/lixenwraith/asynclog/compat"
)

// Example gnet event handler
type echoServer struct {
	gnet.BuiltinEventEngine
	logger *asynclog.AsyncLogger
}

func (es *echoServer) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	es.logger.Debugf("connection opened from %s", c.RemoteAddr())
	return nil, gnet.None
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	// Event loops must never block on disk
	es.logger.Tracef("echo %d bytes to %s", len(buf), c.RemoteAddr())
	c.Write(buf)
	return gnet.None
}

func main() {
	logger, err := asynclog.NewBuilder().
		Directory("/var/log/gnet").
		Name("echo").
		LevelString("debug").
		Format("json").
		QueueCapacity(16384).
		BuildAsync()
	if err != nil {
		panic(err)
	}
	defer logger.Shutdown(2 * time.Second)

	gnetAdapter := compat.NewGnetAdapter(logger)

	// Configure gnet server with the logger
	err = gnet.Run(
		&echoServer{logger: logger},
		"tcp://127.0.0.1:9000",
		gnet.WithMulticore(true),
		gnet.WithLogger(gnetAdapter),
		gnet.WithReusePort(true),
	)
	if err != nil {
		panic(err)
	}
}
