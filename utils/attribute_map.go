package utils

// AttributeMap holds the untyped attributes of a config before they are decoded into a plugin's
// own config struct.
type AttributeMap map[string]interface{}
