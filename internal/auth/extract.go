package auth

import "strings"

// TokenQueryParam carries the credential for clients that cannot set headers,
// such as native <video> elements.
const TokenQueryParam = "token"

// ExtractToken picks the raw token from a "Bearer <token>" Authorization
// header, falling back to the query parameter value.
func ExtractToken(authHeader, queryToken string) (string, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token, nil
			}
		}
		if queryToken == "" {
			return "", ErrInvalidCredential
		}
	}

	if token := strings.TrimSpace(queryToken); token != "" {
		return token, nil
	}
	return "", ErrMissingCredential
}
