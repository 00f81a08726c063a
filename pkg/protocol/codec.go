package protocol

import (
	"fmt"
	"math"
)

// PlayerInfo bitfields.
const (
	infoLarge       = 0x80
	infoColorMask   = 0x70
	infoColorShift  = 4
	infoAmountMask  = 0x0F
	infoVisible     = 0x80
	infoWeaponDrawn = 0x40
)

// Encode serializes ev into a full, zero-padded frame.
func Encode(ev Event) []byte {
	var e Encoder
	EncodeTo(&e, ev)
	return e.Bytes()
}

// EncodeTo resets e and writes ev into it.
func EncodeTo(e *Encoder, ev Event) {
	e.Reset()
	e.WriteByte(byte(ev.Type()))
	ev.encodePayload(e)
}

// Decode parses a frame. Unknown types, including the reserved null type,
// return ErrUnknownType.
func Decode(b []byte) (Event, error) {
	d := NewDecoder(b)
	tb, err := d.ReadByte()
	if err != nil {
		return nil, err
	}

	var ev Event
	switch t := Type(tb); t {
	case TypeProgramVersion:
		var v ProgramVersion
		v.Major, err = d.ReadUint16()
		if err == nil {
			v.Minor, err = d.ReadUint16()
		}
		if err == nil {
			v.Subminor, err = d.ReadUint16()
		}
		if err == nil {
			v.Revision, err = d.ReadUint16()
		}
		ev = v
	case TypePlayerInfo:
		ev, err = decodePlayerInfo(d)
	case TypePlayerSpawnLaser:
		var v PlayerSpawnLaser
		v.Dir, err = d.ReadByte()
		if err == nil {
			v.X, err = d.ReadInt16()
		}
		if err == nil {
			v.Y, err = d.ReadInt16()
		}
		ev = v
	case TypePlayerEnteredGate:
		ev = PlayerEnteredGate{}
	case TypePlayerHealthChanged:
		var v PlayerHealthChanged
		v.Health, err = d.ReadUint32()
		ev = v
	case TypePlayerDied:
		ev = PlayerDied{}
	case TypeHealthTransfer:
		var v HealthTransfer
		v.Amount, err = d.ReadUint32()
		ev = v
	case TypeEnemyHealthChanged:
		var v EnemyHealthChanged
		v.ID, err = d.ReadUint32()
		if err == nil {
			v.Health, err = d.ReadUint32()
		}
		ev = v
	case TypeEnemyStateSync:
		var v EnemyStateSync
		v.State, err = d.ReadByte()
		if err == nil {
			v.X, err = d.ReadInt16()
		}
		if err == nil {
			v.Y, err = d.ReadInt16()
		}
		if err == nil {
			v.ID, err = d.ReadUint32()
		}
		ev = v
	case TypeSyncSeed:
		var v SyncSeed
		v.State, err = d.ReadUint32()
		ev = v
	case TypeNewLevelSyncSeed:
		var v NewLevelSyncSeed
		v.State, err = d.ReadUint32()
		if err == nil {
			v.Difficulty, err = d.ReadByte()
		}
		if err == nil {
			v.Level, err = d.ReadByte()
		}
		ev = v
	case TypeNewLevelIdle:
		ev = NewLevelIdle{}
	case TypeItemTaken:
		var v ItemTaken
		v.X, err = d.ReadInt16()
		if err == nil {
			v.Y, err = d.ReadInt16()
		}
		ev = v
	case TypeItemChestOpened:
		var v ItemChestOpened
		v.ID, err = d.ReadUint32()
		ev = v
	case TypeQuickChat:
		var v QuickChat
		v.Message, err = d.ReadUint32()
		ev = v
	case TypeLethargyActivated:
		ev = LethargyActivated{}
	case TypeDisconnect:
		ev = Disconnect{}
	case TypeBossSwapTarget:
		var v BossSwapTarget
		v.Target, err = d.ReadByte()
		ev = v
	default:
		return nil, fmt.Errorf("%w: %#02x", ErrUnknownType, tb)
	}

	if err != nil {
		return nil, err
	}
	return ev, nil
}

func decodePlayerInfo(d *Decoder) (PlayerInfo, error) {
	var v PlayerInfo
	var opt [4]byte
	for i := range opt {
		b, err := d.ReadByte()
		if err != nil {
			return v, err
		}
		opt[i] = b
	}
	v.Large = opt[0]&infoLarge != 0
	v.Color = (opt[0] & infoColorMask) >> infoColorShift
	v.ColorAmount = opt[0] & infoAmountMask
	v.Visible = opt[1]&infoVisible != 0
	v.WeaponDrawn = opt[1]&infoWeaponDrawn != 0
	v.Texture = opt[2]
	v.PlayerID = opt[3]

	sx, err := d.ReadInt8()
	if err != nil {
		return v, err
	}
	sy, err := d.ReadInt8()
	if err != nil {
		return v, err
	}
	v.SpeedX = speedFromWire(sx)
	v.SpeedY = speedFromWire(sy)

	v.X, err = d.ReadInt16()
	if err == nil {
		v.Y, err = d.ReadInt16()
	}
	return v, err
}

func speedToWire(v float32) int8 {
	t := math.Round(float64(v) * 10)
	return int8(max(math.MinInt8, min(math.MaxInt8, t)))
}

func speedFromWire(v int8) float32 {
	return float32(v) / 10
}

func (v ProgramVersion) encodePayload(e *Encoder) {
	e.WriteUint16(v.Major)
	e.WriteUint16(v.Minor)
	e.WriteUint16(v.Subminor)
	e.WriteUint16(v.Revision)
}

func (v PlayerInfo) encodePayload(e *Encoder) {
	var opt1, opt2 byte
	if v.Large {
		opt1 |= infoLarge
	}
	opt1 |= (v.Color << infoColorShift) & infoColorMask
	opt1 |= v.ColorAmount & infoAmountMask
	if v.Visible {
		opt2 |= infoVisible
	}
	if v.WeaponDrawn {
		opt2 |= infoWeaponDrawn
	}
	e.WriteByte(opt1)
	e.WriteByte(opt2)
	e.WriteByte(v.Texture)
	e.WriteByte(v.PlayerID)
	e.WriteInt8(speedToWire(v.SpeedX))
	e.WriteInt8(speedToWire(v.SpeedY))
	e.WriteInt16(v.X)
	e.WriteInt16(v.Y)
}

func (v PlayerSpawnLaser) encodePayload(e *Encoder) {
	e.WriteByte(v.Dir)
	e.WriteInt16(v.X)
	e.WriteInt16(v.Y)
}

func (PlayerEnteredGate) encodePayload(*Encoder) {}

func (v PlayerHealthChanged) encodePayload(e *Encoder) {
	e.WriteUint32(v.Health)
}

func (PlayerDied) encodePayload(*Encoder) {}

func (v HealthTransfer) encodePayload(e *Encoder) {
	e.WriteUint32(v.Amount)
}

func (v EnemyHealthChanged) encodePayload(e *Encoder) {
	e.WriteUint32(v.ID)
	e.WriteUint32(v.Health)
}

func (v EnemyStateSync) encodePayload(e *Encoder) {
	e.WriteByte(v.State)
	e.WriteInt16(v.X)
	e.WriteInt16(v.Y)
	e.WriteUint32(v.ID)
}

func (v SyncSeed) encodePayload(e *Encoder) {
	e.WriteUint32(v.State)
}

func (v NewLevelSyncSeed) encodePayload(e *Encoder) {
	e.WriteUint32(v.State)
	e.WriteByte(v.Difficulty)
	e.WriteByte(v.Level)
}

func (NewLevelIdle) encodePayload(*Encoder) {}

func (v ItemTaken) encodePayload(e *Encoder) {
	e.WriteInt16(v.X)
	e.WriteInt16(v.Y)
}

func (v ItemChestOpened) encodePayload(e *Encoder) {
	e.WriteUint32(v.ID)
}

func (v QuickChat) encodePayload(e *Encoder) {
	e.WriteUint32(v.Message)
}

func (LethargyActivated) encodePayload(*Encoder) {}

func (Disconnect) encodePayload(*Encoder) {}

func (v BossSwapTarget) encodePayload(e *Encoder) {
	e.WriteByte(v.Target)
}
