package scripting

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/obsrig/ccsbridge/internal/interp"
	"github.com/obsrig/ccsbridge/internal/testutil/mirror"
	"github.com/obsrig/ccsbridge/internal/testutil/testlog"
)

func TestBridgeSubsystemSyncCommand(t *testing.T) {
	testlog.Start(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	transcript := &mirror.Buffer{}
	payloads := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("CCS Python interpreter ready\n"))

		reader := bufio.NewReader(conn)
		first, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		id := strings.TrimPrefix(strings.TrimSuffix(first, "\n"), "startContent:")
		var lines []string
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimSuffix(line, "\n")
			if line == "endContent:"+id {
				break
			}
			lines = append(lines, line)
		}
		payloads <- strings.Join(lines, "\n")

		_, _ = conn.Write([]byte("0 1 2\n"))
		transcript.WaitFor(t, "0 1 2\n")
		_, _ = conn.Write([]byte("doneExecution:" + id + "\n"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	addr := ln.Addr().(*net.TCPAddr)
	client, err := interp.Connect(ctx, interp.Config{Host: "127.0.0.1", Port: addr.Port, Mirror: transcript})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	sub := NewBridgeSubsystem(client, "ts8sub")
	got, err := sub.SyncCommand(ctx, "getREBIds")
	if err != nil {
		t.Fatalf("sync command: %v", err)
	}
	if got != "0 1 2" {
		t.Fatalf("result: got %q", got)
	}
	want := `print(ts8sub.sendSynchCommand("getREBIds").getResult())`
	if payload := <-payloads; payload != want {
		t.Fatalf("payload: got %q want %q", payload, want)
	}
}
