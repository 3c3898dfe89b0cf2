package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/ibreez3/learnsphere-ai/service"
)

func main() {
	port := flag.Int("port", 9090, "listen port")
	script := flag.String("script", "ok", "comma-separated modes: ok,content,empty,429,503,401,403,quota,500,timeout")
	key := flag.String("key", "", "if set, requests must carry this bearer token")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	gin.SetMode(gin.ReleaseMode)
	log := service.NewLogger(os.Stdout, *level, "mock-provider")
	p := newProvider(parseScript(*script), *key, log)

	addr := fmt.Sprintf(":%d", *port)
	log.Info().Str("addr", addr).Strs("script", p.script).Msg("mock completion provider starting")
	if err := p.router().Run(addr); err != nil {
		log.Fatal().Err(err).Msg("mock provider stopped")
	}
}
