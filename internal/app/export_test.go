package app

import "time"

func SetTokenClock(s *TokenService, now func() time.Time) { s.now = now }

func SetValidatorClock(v *ReadingValidator, now func() time.Time) { v.now = now }
