package kernel

// Rendezvous IPC. A sender is send blocked until a receiver takes its
// message, then reply blocked until that receiver replies. Buffers are copied
// only at those two points and never kept past the reply.

func (k *Kernel) sysSend(d *descriptor, f *trapFrame) error {
	to := TID(d.ctx.R[0])
	r := k.lookup(to)
	if r == nil {
		d.ctx.R[0] = SendUnknownTID
		return k.makeReady(d)
	}
	if r == d {
		d.ctx.R[0] = SendIncomplete
		return k.makeReady(d)
	}

	d.msg = f.msg
	d.reply = f.reply
	d.peer = r.self()
	d.status = StatusSendBlocked

	if r.status == StatusReceiveBlocked {
		k.deliver(r, d)
		return k.makeReady(r)
	}
	if !k.q.push(k.qMailbox(to), d.tid) {
		return k.corrupt(d.tid)
	}
	return nil
}

func (k *Kernel) sysReceive(d *descriptor, f *trapFrame) error {
	d.recv = f.msg
	tid, ok := k.q.pop(k.qMailbox(d.tid))
	if !ok {
		d.status = StatusReceiveBlocked
		return nil
	}
	k.deliver(d, &k.tasks[tid])
	return k.makeReady(d)
}

// deliver copies s's message into receiver r and leaves s reply blocked on r.
// r's return registers hold the sender tid and the declared length.
func (k *Kernel) deliver(r, s *descriptor) {
	copy(r.recv, s.msg)
	r.ctx.R[0] = len(s.msg)
	r.ctx.R[1] = int(s.tid)
	r.recv = nil

	s.msg = nil
	s.peer = r.self()
	s.status = StatusReplyBlocked
}

func (k *Kernel) sysReply(d *descriptor, f *trapFrame) error {
	s := k.lookup(TID(d.ctx.R[0]))
	if s == nil {
		d.ctx.R[0] = ReplyUnknownTID
		return k.makeReady(d)
	}
	if s.status != StatusReplyBlocked || s.peer != d.self() {
		d.ctx.R[0] = ReplyNotReplyBlocked
		return k.makeReady(d)
	}

	n := copy(s.reply, f.reply)
	s.ctx.R[0] = n
	s.clearView()
	d.ctx.R[0] = n
	if err := k.makeReady(s); err != nil {
		return err
	}
	return k.makeReady(d)
}
