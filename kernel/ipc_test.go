package kernel

import (
	"reflect"
	"testing"
)

func TestSendersServedInArrivalOrder(t *testing.T) {
	k := newTestKernel(t, Config{})

	var created, served []TID
	var replies []int
	runUntilIdle(t, k, 10, func(task *Task) {
		server := task.Create(1, func(s *Task) {
			buf := make([]byte, 8)
			for i := 0; i < 3; i++ {
				from, _ := s.Receive(buf)
				served = append(served, from)
				s.Reply(from, []byte{byte(i)})
			}
		})
		for i := 0; i < 3; i++ {
			created = append(created, task.Create(5, func(c *Task) {
				reply := make([]byte, 1)
				c.Send(server, []byte("req"), reply)
				replies = append(replies, int(reply[0]))
			}))
		}
	})

	if !reflect.DeepEqual(served, created) {
		t.Fatalf("served = %v, want arrival order %v", served, created)
	}
	if want := []int{0, 1, 2}; !reflect.DeepEqual(replies, want) {
		t.Fatalf("replies = %v, want %v", replies, want)
	}
}

func TestSendToReceiveBlockedTask(t *testing.T) {
	k := newTestKernel(t, Config{})

	var got string
	var from, sender TID
	var n, sendRet int
	runUntilIdle(t, k, 1, func(task *Task) {
		server := task.Create(6, func(s *Task) {
			buf := make([]byte, 16)
			from, n = s.Receive(buf)
			got = string(buf[:n])
			s.Reply(from, []byte("ok"))
		})
		sender = task.MyTid()
		sendRet = task.Send(server, []byte("ping"), make([]byte, 4))
	})

	if got != "ping" || n != 4 || from != sender {
		t.Fatalf("Receive() = %d, %d, %q, want %d, 4, %q", from, n, got, sender, "ping")
	}
	if sendRet != 2 {
		t.Fatalf("Send() = %d, want 2", sendRet)
	}
}

func TestMessageTruncation(t *testing.T) {
	k := newTestKernel(t, Config{})

	var recvLen, replyRet, sendRet int
	var recvd, reply []byte
	runUntilIdle(t, k, 10, func(task *Task) {
		server := task.Create(1, func(s *Task) {
			recvd = make([]byte, 3)
			var from TID
			from, recvLen = s.Receive(recvd)
			replyRet = s.Reply(from, []byte("hello world"))
		})
		task.Create(5, func(c *Task) {
			reply = make([]byte, 5)
			sendRet = c.Send(server, []byte("hello\x00"), reply)
		})
	})

	if recvLen != 6 {
		t.Fatalf("Receive() length = %d, want 6", recvLen)
	}
	if string(recvd) != "hel" {
		t.Fatalf("received %q, want %q", recvd, "hel")
	}
	if sendRet != 5 || replyRet != 5 {
		t.Fatalf("Send() = %d, Reply() = %d, want 5 and 5", sendRet, replyRet)
	}
	if string(reply) != "hello" {
		t.Fatalf("reply buffer = %q, want %q", reply, "hello")
	}
}

func TestSendErrors(t *testing.T) {
	k := newTestKernel(t, Config{MaxTasks: 4})

	var unknown, negative, exited, self int
	runUntilIdle(t, k, 5, func(task *Task) {
		gone := task.Create(7, func(*Task) {})
		unknown = task.Send(3, []byte("x"), nil)
		negative = task.Send(-4, []byte("x"), nil)
		exited = task.Send(gone, []byte("x"), nil)
		self = task.Send(task.MyTid(), []byte("x"), nil)
	})

	if unknown != SendUnknownTID || negative != SendUnknownTID || exited != SendUnknownTID {
		t.Fatalf("Send() to missing task = %d, %d, %d, want %d", unknown, negative, exited, SendUnknownTID)
	}
	if self != SendIncomplete {
		t.Fatalf("Send() to self = %d, want %d", self, SendIncomplete)
	}
}

func TestReplyErrors(t *testing.T) {
	k := newTestKernel(t, Config{MaxTasks: 4})

	var outOfRange, idle, notBlocked int
	runUntilIdle(t, k, 1, func(task *Task) {
		waiter := task.Create(6, func(w *Task) { w.Receive(nil) })
		outOfRange = task.Reply(99, []byte("x"))
		idle = task.Reply(3, []byte("x"))
		notBlocked = task.Reply(waiter, []byte("x"))
	})

	if outOfRange != ReplyUnknownTID || idle != ReplyUnknownTID {
		t.Fatalf("Reply() to missing task = %d, %d, want %d", outOfRange, idle, ReplyUnknownTID)
	}
	if notBlocked != ReplyNotReplyBlocked {
		t.Fatalf("Reply() to receive blocked task = %d, want %d", notBlocked, ReplyNotReplyBlocked)
	}
}

func TestReplyFromWrongTask(t *testing.T) {
	k := newTestKernel(t, Config{})

	intruder, owner := 0, -99
	runUntilIdle(t, k, 1, func(task *Task) {
		server := task.Create(6, func(s *Task) {
			from, _ := s.Receive(nil)
			s.Receive(nil)
			owner = s.Reply(from, nil)
		})
		client := task.Create(5, func(c *Task) { c.Send(server, []byte("q"), nil) })
		intruder = task.Reply(client, []byte("x"))
		task.Send(server, nil, nil)
	})

	if intruder != ReplyNotReplyBlocked {
		t.Fatalf("Reply() by non-receiver = %d, want %d", intruder, ReplyNotReplyBlocked)
	}
	if owner != 0 {
		t.Fatalf("Reply() by receiver = %d, want 0", owner)
	}
}

func TestExitDoesNotReleaseClients(t *testing.T) {
	k := newTestKernel(t, Config{MaxTasks: 4})

	var server, answered, queued TID
	runUntilIdle(t, k, 3, func(task *Task) {
		boot := task.MyTid()
		server = task.Create(6, func(s *Task) {
			s.Receive(nil)
			s.Send(boot, nil, nil)
		})
		answered = task.Create(5, func(c *Task) { c.Send(server, nil, nil) })
		queued = task.Create(4, func(c *Task) { c.Send(server, nil, nil) })
		from, _ := task.Receive(nil)
		task.Reply(from, nil)
	})

	snap := inspect(t, k)
	if _, ok := findTask(snap, server); ok {
		t.Fatalf("server %d still live", server)
	}
	a, _ := findTask(snap, answered)
	if a.Status != StatusReplyBlocked || a.Peer != server {
		t.Fatalf("received client = %s on %d, want %s on %d", a.Status, a.Peer, StatusReplyBlocked, server)
	}
	q, _ := findTask(snap, queued)
	if q.Status != StatusSendBlocked || q.Peer != server {
		t.Fatalf("queued client = %s on %d, want %s on %d", q.Status, q.Peer, StatusSendBlocked, server)
	}
	if snap.Orphans != 1 {
		t.Fatalf("orphaned senders = %d, want 1", snap.Orphans)
	}
}

func TestReusedSlotDoesNotInheritSenders(t *testing.T) {
	k := newTestKernel(t, Config{MaxTasks: 4})

	var server, client, reused TID
	runUntilIdle(t, k, 3, func(task *Task) {
		server = task.Create(2, func(*Task) {})
		client = task.Create(5, func(c *Task) { c.Send(server, []byte("lost"), nil) })
		task.Create(1, func(c *Task) {
			reused = c.Create(6, func(r *Task) { r.Receive(nil) })
		})
		task.Receive(nil)
	})

	if reused != server {
		t.Fatalf("reused tid = %d, want slot %d", reused, server)
	}
	snap := inspect(t, k)
	r, _ := findTask(snap, reused)
	if r.Status != StatusReceiveBlocked || r.Pending != 0 {
		t.Fatalf("new occupant = %s with %d pending, want %s with none", r.Status, r.Pending, StatusReceiveBlocked)
	}
	c, _ := findTask(snap, client)
	if c.Status != StatusSendBlocked {
		t.Fatalf("client status = %s, want %s", c.Status, StatusSendBlocked)
	}
	if snap.Orphans != 1 {
		t.Fatalf("orphaned senders = %d, want 1", snap.Orphans)
	}
}

func TestReplyAfterSlotReuseFails(t *testing.T) {
	k := newTestKernel(t, Config{MaxTasks: 3})

	var server, client, successor TID
	var ret int
	runUntilIdle(t, k, 1, func(task *Task) {
		server = task.Create(6, func(s *Task) { s.Receive(nil) })
		client = task.Create(5, func(c *Task) { c.Send(server, []byte("q"), nil) })
		successor = task.Create(4, func(n *Task) {
			ret = n.Reply(client, []byte("a"))
			n.Receive(nil)
		})
	})

	if successor != server {
		t.Fatalf("successor tid = %d, want reused slot %d", successor, server)
	}
	if ret != ReplyNotReplyBlocked {
		t.Fatalf("Reply() from reused slot = %d, want %d", ret, ReplyNotReplyBlocked)
	}

	snap := inspect(t, k)
	c, _ := findTask(snap, client)
	if c.Status != StatusReplyBlocked {
		t.Fatalf("client status = %s, want %s", c.Status, StatusReplyBlocked)
	}
	s, _ := findTask(snap, successor)
	if s.Status != StatusReceiveBlocked || s.Generation != 2 {
		t.Fatalf("successor = %s gen %d, want %s gen 2", s.Status, s.Generation, StatusReceiveBlocked)
	}
}
