package prayer

import "fmt"

// Subscriber-facing message texts. Arabic, matching the bot's audience.

// AdhanMessage is the primary notification for an event.
func AdhanMessage(k Kind, cal CalendarContext) string {
	return fmt.Sprintf("🔔 حان الآن موعد أذان %s حسب موقعك.", Label(k, cal))
}

// IqamaMessage is the second-call notification for an event.
func IqamaMessage(k Kind, cal CalendarContext) string {
	return fmt.Sprintf("🕌 حان الآن موعد إقامة صلاة %s.", Label(k, cal))
}

// Welcome is sent in response to /start, alongside a keyboard requesting
// the subscriber's location.
const Welcome = "🌙 مرحباً بك! يرجى إرسال موقعك (Location) لتفعيل تنبيهات الأذان تلقائياً."

// ShareLocationButton is the label on the location-request keyboard.
const ShareLocationButton = "📍 إرسال الموقع"

// LocationSaved confirms a registration or re-registration.
const LocationSaved = "✅ تم حفظ موقعك بنجاح! سأقوم بتنبيهك عند كل صلاة."

// Stopped confirms an unsubscribe.
const Stopped = "🛑 تم إيقاف التنبيهات وحذف بياناتك. أرسل موقعك مجدداً لإعادة التفعيل."

// StatusMessage describes an active subscription.
func StatusMessage(zone string) string {
	if zone == "" {
		return "✅ التنبيهات مفعلة لموقعك."
	}
	return fmt.Sprintf("✅ التنبيهات مفعلة لموقعك (المنطقة الزمنية: %s).", zone)
}

// StatusInactive is the /status reply when no subscription exists.
const StatusInactive = "ℹ️ لا يوجد اشتراك مفعل. أرسل موقعك لتفعيل التنبيهات."

// Help is the fallback for unrecognized input.
const Help = "أرسل /start ثم شارك موقعك لتفعيل تنبيهات الأذان، أو /status لمعرفة حالة اشتراكك، أو /stop لإيقاف التنبيهات."
