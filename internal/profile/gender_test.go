package profile

import "testing"

func TestDetectFromNameFemale(t *testing.T) {
	gender, conf := DetectFromName("Мария")
	if gender != "female" || conf <= 0 {
		t.Fatalf("DetectFromName(Мария) = (%s, %v), want female with positive confidence", gender, conf)
	}
}

func TestDetectFromNameMale(t *testing.T) {
	gender, conf := DetectFromName("Иванов")
	if gender != "male" || conf <= 0 {
		t.Fatalf("DetectFromName(Иванов) = (%s, %v), want male with positive confidence", gender, conf)
	}
}

func TestDetectFromNameEmpty(t *testing.T) {
	gender, conf := DetectFromName("")
	if gender != "unknown" || conf != 0 {
		t.Fatalf("DetectFromName(\"\") = (%s, %v), want (unknown, 0)", gender, conf)
	}
}

func TestDetectFromMessagesFemalePattern(t *testing.T) {
	gender, conf := DetectFromMessages([]string{"я сходила в магазин", "я решила остаться"})
	if gender != "female" || conf <= 0.5 {
		t.Fatalf("DetectFromMessages(female verbs) = (%s, %v), want female with confidence > 0.5", gender, conf)
	}
}

func TestDetectFromMessagesNoSignal(t *testing.T) {
	gender, conf := DetectFromMessages([]string{"hello", "ok thanks"})
	if gender != "unknown" || conf != 0 {
		t.Fatalf("DetectFromMessages(no signal) = (%s, %v), want (unknown, 0)", gender, conf)
	}
}

func TestResolvePrefersHigherConfidenceSource(t *testing.T) {
	// Name heuristic alone would say male (ends in "ов"); message pattern
	// gives a stronger, higher-confidence female signal that should win.
	gender, conf := Resolve("Иванов", []string{"я сходила", "я была рада", "я сказала"})
	if gender != "female" {
		t.Fatalf("Resolve() = (%s, %v), want the higher-confidence message-based signal (female) to win", gender, conf)
	}
}
