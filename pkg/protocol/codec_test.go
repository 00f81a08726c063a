package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/multilink-dev/multilink/pkg/link"
)

func TestEncodeLittleEndian(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want []byte
	}{
		{
			name: "sync seed",
			ev:   SyncSeed{State: 0xABCD1234},
			want: []byte{0x0A, 0x34, 0x12, 0xCD, 0xAB},
		},
		{
			name: "new level seed",
			ev:   NewLevelSyncSeed{State: 0x01020304, Difficulty: 2, Level: 5},
			want: []byte{0x0B, 0x04, 0x03, 0x02, 0x01, 0x02, 0x05},
		},
		{
			name: "program version",
			ev:   ProgramVersion{Major: 1, Minor: 0x0203, Subminor: 4, Revision: 0x0506},
			want: []byte{0x01, 0x01, 0x00, 0x03, 0x02, 0x04, 0x00, 0x06, 0x05},
		},
		{
			name: "enemy state",
			ev:   EnemyStateSync{State: 3, X: -2, Y: 0x0100, ID: 7},
			want: []byte{0x09, 0x03, 0xFE, 0xFF, 0x00, 0x01, 0x07, 0x00, 0x00, 0x00},
		},
		{
			name: "disconnect",
			ev:   Disconnect{},
			want: []byte{0x11},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Encode(tc.ev)
			if len(got) != link.MaxMessageSize {
				t.Fatalf("len = %d, want %d", len(got), link.MaxMessageSize)
			}
			if !bytes.Equal(got[:len(tc.want)], tc.want) {
				t.Errorf("prefix = % x, want % x", got[:len(tc.want)], tc.want)
			}
			for i, b := range got[len(tc.want):] {
				if b != 0 {
					t.Errorf("padding byte %d = %#x, want 0", len(tc.want)+i, b)
				}
			}

			dec, err := Decode(got)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if dec != tc.ev {
				t.Errorf("Decode() = %+v, want %+v", dec, tc.ev)
			}
		})
	}
}

func TestPlayerInfoBitfields(t *testing.T) {
	in := PlayerInfo{
		PlayerID:    1,
		Texture:     42,
		X:           -300,
		Y:           1200,
		SpeedX:      1.5,
		SpeedY:      -0.3,
		Large:       true,
		Color:       5,
		ColorAmount: 9,
		Visible:     true,
		WeaponDrawn: false,
	}
	b := Encode(in)

	if b[1] != 0x80|5<<4|9 {
		t.Errorf("opt1 = %#x, want %#x", b[1], 0x80|5<<4|9)
	}
	if b[2] != 0x80 {
		t.Errorf("opt2 = %#x, want 0x80", b[2])
	}
	if int8(b[5]) != 15 || int8(b[6]) != -3 {
		t.Errorf("speeds = %d/%d, want 15/-3", int8(b[5]), int8(b[6]))
	}

	ev, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	out := ev.(PlayerInfo)
	if out.SpeedX != 1.5 {
		t.Errorf("SpeedX = %v, want 1.5", out.SpeedX)
	}
	if out.SpeedY != float32(-3)/10 {
		t.Errorf("SpeedY = %v, want -0.3", out.SpeedY)
	}
	out.SpeedX, out.SpeedY = in.SpeedX, in.SpeedY
	if out != in {
		t.Errorf("Decode() = %+v, want %+v", out, in)
	}
}

func TestSpeedClamped(t *testing.T) {
	tests := []struct {
		in   float32
		want int8
	}{
		{0, 0},
		{12.7, 127},
		{100, 127},
		{-100, -128},
		{0.04, 0},
		{0.06, 1},
	}
	for _, tc := range tests {
		if got := speedToWire(tc.in); got != tc.want {
			t.Errorf("speedToWire(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestNoEventEncodesToZero(t *testing.T) {
	events := []Event{
		ProgramVersion{}, PlayerInfo{}, PlayerSpawnLaser{}, PlayerEnteredGate{},
		PlayerHealthChanged{}, PlayerDied{}, HealthTransfer{}, EnemyHealthChanged{},
		EnemyStateSync{}, SyncSeed{}, NewLevelSyncSeed{}, NewLevelIdle{},
		ItemTaken{}, ItemChestOpened{}, QuickChat{}, LethargyActivated{},
		Disconnect{}, BossSwapTarget{},
	}
	for _, ev := range events {
		var f link.Frame
		copy(f[:], Encode(ev))
		if f.IsZero() {
			t.Errorf("%v encodes to an all-zero frame", ev.Type())
		}
		if ev.Type().String() == "Unknown" {
			t.Errorf("%T has no type name", ev)
		}
	}
}

func TestDecodeUnknownType(t *testing.T) {
	for _, b := range [][]byte{
		{0x00, 0x01},
		{0x7F},
		{0xFF, 1, 2, 3},
	} {
		_, err := Decode(b)
		if !errors.Is(err, ErrUnknownType) {
			t.Errorf("Decode(% x) error = %v, want %v", b, err, ErrUnknownType)
		}
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	tests := [][]byte{
		{},
		{byte(TypeSyncSeed), 1, 2},
		{byte(TypeEnemyHealthChanged), 1, 2, 3, 4, 5},
		{byte(TypePlayerInfo), 0, 0, 0},
		{byte(TypePlayerInfo), 0, 0, 0, 0, 0xF1},
		{byte(TypeNewLevelSyncSeed), 1, 2, 3, 4, 5},
	}
	for _, b := range tests {
		if _, err := Decode(b); !errors.Is(err, ErrBufferTooShort) {
			t.Errorf("Decode(% x) error = %v, want %v", b, err, ErrBufferTooShort)
		}
	}
}

func TestEncoderOverflowPanics(t *testing.T) {
	var e Encoder
	for i := 0; i < link.MaxMessageSize/4; i++ {
		e.WriteUint32(1)
	}
	defer func() {
		if recover() == nil {
			t.Error("write past frame end did not panic")
		}
	}()
	e.WriteByte(1)
}
