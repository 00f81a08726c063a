package protocol

// Type is the one-byte event discriminant at the start of every frame.
type Type uint8

// Event types. Zero is reserved: a frame that starts with it could be all
// zero, and all-zero frames never cross the link.
const (
	TypeNull                Type = 0x00
	TypeProgramVersion      Type = 0x01
	TypePlayerInfo          Type = 0x02
	TypePlayerSpawnLaser    Type = 0x03
	TypePlayerEnteredGate   Type = 0x04
	TypePlayerHealthChanged Type = 0x05
	TypePlayerDied          Type = 0x06
	TypeHealthTransfer      Type = 0x07
	TypeEnemyHealthChanged  Type = 0x08
	TypeEnemyStateSync      Type = 0x09
	TypeSyncSeed            Type = 0x0A
	TypeNewLevelSyncSeed    Type = 0x0B
	TypeNewLevelIdle        Type = 0x0C
	TypeItemTaken           Type = 0x0D
	TypeItemChestOpened     Type = 0x0E
	TypeQuickChat           Type = 0x0F
	TypeLethargyActivated   Type = 0x10
	TypeDisconnect          Type = 0x11
	TypeBossSwapTarget      Type = 0x12
)

// String returns the string representation of the event type.
func (t Type) String() string {
	switch t {
	case TypeNull:
		return "Null"
	case TypeProgramVersion:
		return "ProgramVersion"
	case TypePlayerInfo:
		return "PlayerInfo"
	case TypePlayerSpawnLaser:
		return "PlayerSpawnLaser"
	case TypePlayerEnteredGate:
		return "PlayerEnteredGate"
	case TypePlayerHealthChanged:
		return "PlayerHealthChanged"
	case TypePlayerDied:
		return "PlayerDied"
	case TypeHealthTransfer:
		return "HealthTransfer"
	case TypeEnemyHealthChanged:
		return "EnemyHealthChanged"
	case TypeEnemyStateSync:
		return "EnemyStateSync"
	case TypeSyncSeed:
		return "SyncSeed"
	case TypeNewLevelSyncSeed:
		return "NewLevelSyncSeed"
	case TypeNewLevelIdle:
		return "NewLevelIdle"
	case TypeItemTaken:
		return "ItemTaken"
	case TypeItemChestOpened:
		return "ItemChestOpened"
	case TypeQuickChat:
		return "QuickChat"
	case TypeLethargyActivated:
		return "LethargyActivated"
	case TypeDisconnect:
		return "Disconnect"
	case TypeBossSwapTarget:
		return "BossSwapTarget"
	default:
		return "Unknown"
	}
}

// Event is one entry of the event catalogue. The set is closed: every
// implementation lives in this package.
type Event interface {
	Type() Type
	encodePayload(e *Encoder)
}

// ProgramVersion is exchanged once per session to reject mismatched builds.
type ProgramVersion struct {
	Major    uint16
	Minor    uint16
	Subminor uint16
	Revision uint16
}

// PlayerInfo carries a player's pose and status.
type PlayerInfo struct {
	PlayerID uint8
	Texture  uint8
	X, Y     int16

	// Speeds travel as tenths of a pixel per frame in a signed byte.
	SpeedX, SpeedY float32

	Large       bool
	Color       uint8 // 0-7
	ColorAmount uint8 // 0-15
	Visible     bool
	WeaponDrawn bool
}

// PlayerSpawnLaser announces a shot.
type PlayerSpawnLaser struct {
	Dir  uint8
	X, Y int16
}

// PlayerEnteredGate announces that a player reached the exit.
type PlayerEnteredGate struct{}

// PlayerHealthChanged carries a player's new health.
type PlayerHealthChanged struct {
	Health uint32
}

// PlayerDied announces a player's death.
type PlayerDied struct{}

// HealthTransfer gives health to the other player.
type HealthTransfer struct {
	Amount uint32
}

// EnemyHealthChanged carries an enemy's new health.
type EnemyHealthChanged struct {
	ID     uint32
	Health uint32
}

// EnemyStateSync carries an enemy's state and position.
type EnemyStateSync struct {
	State uint8
	X, Y  int16
	ID    uint32
}

// SyncSeed carries the host's shared generator state.
type SyncSeed struct {
	State uint32
}

// NewLevelSyncSeed carries the generator state and difficulty for the next
// level. Level numbers the barriers passed in this session, starting at 1,
// so a repeated answer for an earlier barrier can be recognised.
type NewLevelSyncSeed struct {
	State      uint32
	Difficulty uint8
	Level      uint8
}

// NewLevelIdle announces that a player is waiting at a level boundary.
type NewLevelIdle struct{}

// ItemTaken announces that the item at a position was picked up.
type ItemTaken struct {
	X, Y int16
}

// ItemChestOpened announces that a chest was opened.
type ItemChestOpened struct {
	ID uint32
}

// QuickChat carries a canned chat message index.
type QuickChat struct {
	Message uint32
}

// LethargyActivated announces the lethargy power-up.
type LethargyActivated struct{}

// Disconnect announces a graceful leave.
type Disconnect struct{}

// BossSwapTarget tells a boss to switch target.
type BossSwapTarget struct {
	Target uint8
}

func (ProgramVersion) Type() Type      { return TypeProgramVersion }
func (PlayerInfo) Type() Type          { return TypePlayerInfo }
func (PlayerSpawnLaser) Type() Type    { return TypePlayerSpawnLaser }
func (PlayerEnteredGate) Type() Type   { return TypePlayerEnteredGate }
func (PlayerHealthChanged) Type() Type { return TypePlayerHealthChanged }
func (PlayerDied) Type() Type          { return TypePlayerDied }
func (HealthTransfer) Type() Type      { return TypeHealthTransfer }
func (EnemyHealthChanged) Type() Type  { return TypeEnemyHealthChanged }
func (EnemyStateSync) Type() Type      { return TypeEnemyStateSync }
func (SyncSeed) Type() Type            { return TypeSyncSeed }
func (NewLevelSyncSeed) Type() Type    { return TypeNewLevelSyncSeed }
func (NewLevelIdle) Type() Type        { return TypeNewLevelIdle }
func (ItemTaken) Type() Type           { return TypeItemTaken }
func (ItemChestOpened) Type() Type     { return TypeItemChestOpened }
func (QuickChat) Type() Type           { return TypeQuickChat }
func (LethargyActivated) Type() Type   { return TypeLethargyActivated }
func (Disconnect) Type() Type          { return TypeDisconnect }
func (BossSwapTarget) Type() Type      { return TypeBossSwapTarget }
