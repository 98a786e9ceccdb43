// Package protocol implements the vault's host command protocol: packet
// decoding, command identifiers, field validation and reply building.
// Every exchange is one request packet in, at most one reply packet out.
package protocol

// Command identifiers carried in the first byte of every packet.
const (
	CmdPing             byte = 0x02
	CmdVersion          byte = 0x03
	CmdSetContext       byte = 0x04
	CmdGetLogin         byte = 0x05
	CmdGetPassword      byte = 0x06
	CmdSetLogin         byte = 0x07
	CmdSetPassword      byte = 0x08
	CmdCheckPassword    byte = 0x09
	CmdAddContext       byte = 0x0A
	CmdSetBootPassword  byte = 0x0B
	CmdJumpToBootloader byte = 0x0C
	CmdGetRandom        byte = 0x0D
	CmdStartMemoryMgmt  byte = 0x0E
	CmdImportMediaStart byte = 0x0F
	CmdImportMedia      byte = 0x10
	CmdImportMediaEnd   byte = 0x11
	CmdSetParameter     byte = 0x12
	CmdGetParameter     byte = 0x13
	CmdReadCardLogin    byte = 0x15
	CmdReadCardPassword byte = 0x16
	CmdSetCardLogin     byte = 0x17
	CmdSetCardPassword  byte = 0x18
	CmdStatus           byte = 0x1A
	CmdSetDate          byte = 0x1C
	CmdSetUID           byte = 0x1D
	CmdGetUID           byte = 0x1E
	CmdSetDataContext   byte = 0x1F
	CmdAddDataContext   byte = 0x20
	CmdWriteDataBlock   byte = 0x21
	CmdReadDataBlock    byte = 0x22
	CmdGetCardCPZ       byte = 0x23
	CmdCancel           byte = 0x24
	CmdGetDescription   byte = 0x26

	CmdGetDataStartingParent byte = 0x28
	CmdSetDataStartingParent byte = 0x29
	CmdReadFlashNode         byte = 0x30
	CmdWriteFlashNode        byte = 0x31
	CmdGetFavorite           byte = 0x32
	CmdSetFavorite           byte = 0x33
	CmdGetStartingParent     byte = 0x34
	CmdSetStartingParent     byte = 0x35
	CmdGetCtrValue           byte = 0x36
	CmdSetCtrValue           byte = 0x37
	CmdAddCpzCtr             byte = 0x38
	CmdGetCpzCtr             byte = 0x39
	CmdGetFreeSlots          byte = 0x3A
	CmdEndMemoryMgmt         byte = 0x3B
)

// Packet framing constants. A transport frame is
// [command: 1 byte][length: 1 byte][body: up to MaxBody bytes].
const (
	PacketMaxSize = 64
	HeaderSize    = 2
	MaxBody       = PacketMaxSize - HeaderSize
)

// Status probe bits returned by CmdStatus, host-pollable in any session state.
const (
	StatusBitCardPresent  byte = 0x01
	StatusBitUnlockPrompt byte = 0x02
	StatusBitCardUnlocked byte = 0x04
	StatusBitUnknownCard  byte = 0x08
)

// Text field size limits, matching the persisted node layout.
const (
	MaxServiceLen      = 58
	MaxLoginLen        = 63
	MaxPasswordLen     = 32
	MaxDescriptionLen  = 24
	MaxCardLoginLen    = 62
	MaxCardPasswordLen = 30
)

// Fixed body sizes for binary-argument commands.
const (
	CtrValueSize      = 3  // AES CTR counter stored per user profile
	CpzSize           = 8  // smartcard code-protected-zone value
	CtrNonceSize      = 16 // AES counter nonce paired with a CPZ
	UIDSize           = 6
	UIDRequestKeySize = 16
	BootPasswordSize  = MaxBody
	DataBlockSize     = 32 // free-form data node block unit
)

// AccessClass statically classifies a command. The dispatcher checks the
// class before any handler side effect.
type AccessClass int

const (
	// ClassPublic commands execute in any session state.
	ClassPublic AccessClass = iota
	// ClassUnlocked commands require an authenticated (unlocked) session.
	ClassUnlocked
	// ClassMemoryMgmt commands require approved memory management mode.
	ClassMemoryMgmt
)

// memory management command identifier range; kept contiguous so the class
// check cannot miss a newly added raw-access command.
const (
	firstMemoryMgmtCmd = CmdGetDataStartingParent
	lastMemoryMgmtCmd  = CmdEndMemoryMgmt
)

// Class returns the access class of a command identifier.
func Class(cmd byte) AccessClass {
	if cmd >= firstMemoryMgmtCmd && cmd <= lastMemoryMgmtCmd {
		return ClassMemoryMgmt
	}
	switch cmd {
	case CmdSetContext, CmdSetDataContext, CmdAddContext, CmdAddDataContext,
		CmdGetLogin, CmdGetPassword, CmdGetDescription,
		CmdSetLogin, CmdSetPassword, CmdCheckPassword,
		CmdWriteDataBlock, CmdReadDataBlock,
		CmdReadCardLogin, CmdReadCardPassword, CmdSetCardLogin, CmdSetCardPassword:
		return ClassUnlocked
	default:
		return ClassPublic
	}
}

// CommandName returns a human-readable command name for logging.
func CommandName(cmd byte) string {
	if name, ok := commandNames[cmd]; ok {
		return name
	}
	return "UNKNOWN"
}

var commandNames = map[byte]string{
	CmdPing:                  "PING",
	CmdVersion:               "VERSION",
	CmdSetContext:            "SET_CONTEXT",
	CmdGetLogin:              "GET_LOGIN",
	CmdGetPassword:           "GET_PASSWORD",
	CmdSetLogin:              "SET_LOGIN",
	CmdSetPassword:           "SET_PASSWORD",
	CmdCheckPassword:         "CHECK_PASSWORD",
	CmdAddContext:            "ADD_CONTEXT",
	CmdSetBootPassword:       "SET_BOOT_PASSWORD",
	CmdJumpToBootloader:      "JUMP_TO_BOOTLOADER",
	CmdGetRandom:             "GET_RANDOM",
	CmdStartMemoryMgmt:       "START_MEMORYMGMT",
	CmdImportMediaStart:      "IMPORT_MEDIA_START",
	CmdImportMedia:           "IMPORT_MEDIA",
	CmdImportMediaEnd:        "IMPORT_MEDIA_END",
	CmdSetParameter:          "SET_PARAMETER",
	CmdGetParameter:          "GET_PARAMETER",
	CmdReadCardLogin:         "READ_CARD_LOGIN",
	CmdReadCardPassword:      "READ_CARD_PASSWORD",
	CmdSetCardLogin:          "SET_CARD_LOGIN",
	CmdSetCardPassword:       "SET_CARD_PASSWORD",
	CmdStatus:                "STATUS",
	CmdSetDate:               "SET_DATE",
	CmdSetUID:                "SET_UID",
	CmdGetUID:                "GET_UID",
	CmdSetDataContext:        "SET_DATA_CONTEXT",
	CmdAddDataContext:        "ADD_DATA_CONTEXT",
	CmdWriteDataBlock:        "WRITE_DATA_BLOCK",
	CmdReadDataBlock:         "READ_DATA_BLOCK",
	CmdGetCardCPZ:            "GET_CARD_CPZ",
	CmdCancel:                "CANCEL",
	CmdGetDescription:        "GET_DESCRIPTION",
	CmdGetDataStartingParent: "GET_DATA_STARTING_PARENT",
	CmdSetDataStartingParent: "SET_DATA_STARTING_PARENT",
	CmdReadFlashNode:         "READ_FLASH_NODE",
	CmdWriteFlashNode:        "WRITE_FLASH_NODE",
	CmdGetFavorite:           "GET_FAVORITE",
	CmdSetFavorite:           "SET_FAVORITE",
	CmdGetStartingParent:     "GET_STARTING_PARENT",
	CmdSetStartingParent:     "SET_STARTING_PARENT",
	CmdGetCtrValue:           "GET_CTR_VALUE",
	CmdSetCtrValue:           "SET_CTR_VALUE",
	CmdAddCpzCtr:             "ADD_CPZ_CTR",
	CmdGetCpzCtr:             "GET_CPZ_CTR",
	CmdGetFreeSlots:          "GET_FREE_SLOTS",
	CmdEndMemoryMgmt:         "END_MEMORYMGMT",
}

// Known returns true if cmd is part of the closed command set.
func Known(cmd byte) bool {
	_, ok := commandNames[cmd]
	return ok
}
