package nameserver

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	nameclient "railos/client/name"
	"railos/kernel"
	"railos/proto"
)

func run(t *testing.T, boot func(*kernel.Task)) {
	t.Helper()
	k, err := kernel.New(kernel.Config{MaxTasks: 8, MaxPriority: 8})
	if err != nil {
		t.Fatalf("kernel.New() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.Run(ctx, 1, boot); !errors.Is(err, kernel.ErrNoReadyTask) {
		t.Fatalf("Run() error = %v, want %v", err, kernel.ErrNoReadyTask)
	}
}

func TestRegisterAndWhoIs(t *testing.T) {
	var (
		me       kernel.TID
		server   kernel.TID
		found    kernel.TID
		missErr  error
		longErr  error
		rebound  kernel.TID
		whoisErr error
	)
	run(t, func(boot *kernel.Task) {
		me = boot.MyTid()
		ns := boot.Create(6, New(nil, 4).Run)
		server = boot.Create(3, func(t *kernel.Task) {
			if err := nameclient.RegisterAs(t, ns, "clock"); err != nil {
				panic(err)
			}
			t.Receive(nil)
		})

		found, whoisErr = nameclient.WhoIs(boot, ns, "clock")
		_, missErr = nameclient.WhoIs(boot, ns, "train")
		longErr = nameclient.RegisterAs(boot, ns, strings.Repeat("n", proto.MaxNameLen+1))

		if err := nameclient.RegisterAs(boot, ns, "clock"); err != nil {
			panic(err)
		}
		rebound, _ = nameclient.WhoIs(boot, ns, "clock")
	})

	if whoisErr != nil || found != server {
		t.Fatalf("WhoIs(clock) = %d, %v, want %d, nil", found, whoisErr, server)
	}
	if !errors.Is(missErr, proto.ErrNotFound) {
		t.Fatalf("WhoIs(train) error = %v, want %v", missErr, proto.ErrNotFound)
	}
	if !errors.Is(longErr, proto.ErrTooLarge) {
		t.Fatalf("RegisterAs(long) error = %v, want %v", longErr, proto.ErrTooLarge)
	}
	if rebound != me {
		t.Fatalf("WhoIs(clock) after rebind = %d, want %d", rebound, me)
	}
}

func TestCapacity(t *testing.T) {
	var errs []error
	run(t, func(boot *kernel.Task) {
		ns := boot.Create(6, New(nil, 2).Run)
		for _, n := range []string{"a", "b", "c", "a"} {
			errs = append(errs, nameclient.RegisterAs(boot, ns, n))
		}
	})
	want := []error{nil, nil, proto.ErrOverflow, nil}
	for i := range want {
		if !errors.Is(errs[i], want[i]) {
			t.Fatalf("RegisterAs #%d error = %v, want %v", i, errs[i], want[i])
		}
	}
}

func TestBadRequests(t *testing.T) {
	var replies [][]byte
	run(t, func(boot *kernel.Task) {
		ns := boot.Create(6, New(nil, 0).Run)
		for _, msg := range [][]byte{
			{},
			{byte(proto.MsgTime), 'x'},
			{byte(proto.MsgWhoIs)},
		} {
			buf := make([]byte, 8)
			n := boot.Send(ns, msg, buf)
			replies = append(replies, buf[:n])
		}
	})
	for i, r := range replies {
		if _, err := proto.DecodeReply(r); !errors.Is(err, proto.ErrBadMessage) {
			t.Fatalf("reply %d error = %v, want %v", i, err, proto.ErrBadMessage)
		}
	}
}
