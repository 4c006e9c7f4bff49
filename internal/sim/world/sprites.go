package world

// Sprite ids sent to clients. Each family spans Num consecutive variants.
const (
	SpriteBorder    uint8 = 1
	SpriteNumBorder       = 4

	SpriteSolid    uint8 = 5
	SpriteNumSolid       = 4

	SpritePlain    uint8 = 9
	SpriteNumPlain       = 4

	SpriteKoth uint8 = 13
)

func IsBorderSprite(s uint8) bool { return s >= SpriteBorder && s < SpriteBorder+SpriteNumBorder }
func IsSolidSprite(s uint8) bool  { return s >= SpriteSolid && s < SpriteSolid+SpriteNumSolid }
func IsPlainSprite(s uint8) bool  { return s >= SpritePlain && s < SpritePlain+SpriteNumPlain }
