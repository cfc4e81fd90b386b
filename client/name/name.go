package name

import (
	"fmt"

	"railos/client"
	"railos/kernel"
	"railos/proto"
)

// RegisterAs binds name to the calling task. A later registration of the
// same name replaces it.
func RegisterAs(t *kernel.Task, ns kernel.TID, name string) error {
	payload, err := proto.NamePayload(name)
	if err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}
	_, err = client.Call(t, ns, proto.MsgRegisterAs, payload)
	return err
}

// WhoIs returns the task registered under name.
func WhoIs(t *kernel.Task, ns kernel.TID, name string) (kernel.TID, error) {
	payload, err := proto.NamePayload(name)
	if err != nil {
		return kernel.NoTID, fmt.Errorf("whois %q: %w", name, err)
	}
	reply, err := client.Call(t, ns, proto.MsgWhoIs, payload)
	if err != nil {
		return kernel.NoTID, fmt.Errorf("whois %q: %w", name, err)
	}
	tid, ok := proto.DecodeTIDPayload(reply)
	if !ok {
		return kernel.NoTID, fmt.Errorf("whois %q: %w", name, proto.ErrBadMessage)
	}
	return kernel.TID(tid), nil
}
