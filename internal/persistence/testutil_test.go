package persistence

import "os"

func writeRaw(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func readRaw(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
