package service

import (
	"net"
	"strings"
	"testing"
)

func TestUnitContents(t *testing.T) {
	got := UnitContents("/usr/local/bin/lanternd", "")

	if !strings.Contains(got, "ExecStart=/usr/local/bin/lanternd\n") {
		t.Error("unit file missing bare ExecStart when no config path given")
	}
	if !strings.Contains(got, "Type=simple") {
		t.Error("unit file missing Type=simple")
	}
	if !strings.Contains(got, "Restart=on-failure") {
		t.Error("unit file missing Restart=on-failure")
	}
	if !strings.Contains(got, "[Install]") {
		t.Error("unit file missing [Install] section")
	}
}

func TestUnitContentsWithConfig(t *testing.T) {
	got := UnitContents("/usr/local/bin/lanternd", "/etc/lantern/lantern.yaml")

	if !strings.Contains(got, "ExecStart=/usr/local/bin/lanternd --config /etc/lantern/lantern.yaml") {
		t.Errorf("unit file missing --config in ExecStart:\n%s", got)
	}
}

func TestUnitPath(t *testing.T) {
	path, err := UnitPath()
	if err != nil {
		t.Fatalf("UnitPath() error: %v", err)
	}
	if !strings.HasSuffix(path, "systemd/user/lanternd.service") {
		t.Errorf("UnitPath() = %q, want suffix systemd/user/lanternd.service", path)
	}
}

func TestStatusNotListening(t *testing.T) {
	// Grab a free port, then close it so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	got := Status(addr)
	if !strings.Contains(got, "gateway: not listening") {
		t.Errorf("Status() should report not listening, got: %s", got)
	}
}

func TestStatusListening(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	got := Status(ln.Addr().String())
	if !strings.Contains(got, "gateway: listening") {
		t.Errorf("Status() should report listening, got: %s", got)
	}
}
