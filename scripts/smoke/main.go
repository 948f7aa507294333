package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/vovakirdan/chatter/internal/proto"
	"github.com/vovakirdan/chatter/internal/transport/tcp"
)

func main() {
	addr := flag.String("addr", "localhost:9001", "chat server address")
	name := flag.String("name", "smoke", "screen name to negotiate; a numeric suffix is added on retries")
	text := flag.String("text", "hello from smoke test", "message text to broadcast")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, err := tcp.Dial(ctx, *addr, tcp.Options{DialTimeout: *timeout, ReadTimeout: *timeout, WriteTimeout: *timeout})
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	mustSend := func(line string) {
		if err := conn.WriteLine(line); err != nil {
			log.Fatalf("send: %v", err)
		}
	}

	attempts := 0
	for {
		line, err := conn.ReadLine()
		if err != nil {
			log.Fatalf("read: %v", err)
		}

		in := proto.Parse(line)
		switch in.Kind {
		case proto.KindSubmitName:
			candidate := *name
			if attempts > 0 {
				candidate = fmt.Sprintf("%s%d", *name, attempts)
			}
			attempts++
			mustSend(candidate)
		case proto.KindNameAccepted:
			fmt.Printf("Name accepted after %d attempt(s)\n", attempts)
			mustSend(*text)
		case proto.KindUserList:
			fmt.Printf("Users: %q\n", in.Users)
		case proto.KindMessage:
			fmt.Printf("Received message: %q\n", in.Text)
			return
		default:
			fmt.Printf("Unrecognized line: %q\n", line)
		}
	}
}
