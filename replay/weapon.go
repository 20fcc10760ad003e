package replay

import "strconv"

// Weapon is the cause of an elimination.
type Weapon uint8

const (
	WeaponStorm             Weapon = 0
	WeaponFall              Weapon = 1
	WeaponPistol            Weapon = 2
	WeaponShotgun           Weapon = 3
	WeaponAR                Weapon = 4
	WeaponSMG               Weapon = 5
	WeaponSniper            Weapon = 6
	WeaponPickaxe           Weapon = 7
	WeaponGrenade           Weapon = 8
	WeaponGrenadeLauncher   Weapon = 10
	WeaponRPG               Weapon = 11
	WeaponMinigun           Weapon = 12
	WeaponBow               Weapon = 13
	WeaponTrap              Weapon = 14
	WeaponFinallyEliminated Weapon = 15
	WeaponUnknown17         Weapon = 17
	WeaponGasNade           Weapon = 23
	WeaponUnknown24         Weapon = 24
	WeaponTeamSwitch        Weapon = 26
	WeaponUnknown28         Weapon = 28

	// WeaponUnknown stands in for any code not listed above.
	WeaponUnknown Weapon = 0xFF
)

var weaponNames = map[Weapon]string{
	WeaponStorm:             "STORM",
	WeaponFall:              "FALL",
	WeaponPistol:            "PISTOL",
	WeaponShotgun:           "SHOTGUN",
	WeaponAR:                "AR",
	WeaponSMG:               "SMG",
	WeaponSniper:            "SNIPER",
	WeaponPickaxe:           "PICKAXE",
	WeaponGrenade:           "GRENADE",
	WeaponGrenadeLauncher:   "GRENADELAUNCHER",
	WeaponRPG:               "RPG",
	WeaponMinigun:           "MINIGUN",
	WeaponBow:               "BOW",
	WeaponTrap:              "TRAP",
	WeaponFinallyEliminated: "FINALLYELIMINATED",
	WeaponUnknown17:         "UNKNOWN17",
	WeaponGasNade:           "GASNADE",
	WeaponUnknown24:         "UNKNOWN24",
	WeaponTeamSwitch:        "TEAMSWITCH",
	WeaponUnknown28:         "UNKNOWN28",
	WeaponUnknown:           "UNKNOWN",
}

// WeaponFromCode maps a raw cause byte, returning WeaponUnknown for codes
// with no known weapon.
func WeaponFromCode(code uint8) Weapon {
	if _, ok := weaponNames[Weapon(code)]; ok {
		return Weapon(code)
	}
	return WeaponUnknown
}

func (w Weapon) String() string {
	if name, ok := weaponNames[w]; ok {
		return name
	}
	return "Weapon(" + strconv.Itoa(int(w)) + ")"
}

func (w Weapon) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}
