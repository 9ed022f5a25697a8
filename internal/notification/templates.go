package notification

// Message templates keyed by kind and then by language. Every kind must have
// an english entry; it is the fallback for any other language.
var builtinTemplates = map[string]map[string]string{
	kindDengue: {
		English:  `🚨 DENGUE OUTBREAK ALERT: {{.CaseCount}} cases detected in {{.Location}}. Use mosquito nets, remove stagnant water, seek medical help for fever.`,
		Hindi:    `🚨 डेंगू प्रकोप अलर्ट: {{.Location}} में {{.CaseCount}} मामले मिले। मच्छरदानी का उपयोग करें, रुका पानी हटाएं, बुखार के लिए चिकित्सा सहायता लें।`,
		Bengali:  `🚨 ডেঙ্গু প্রাদুর্ভাব সতর্কতা: {{.Location}} এ {{.CaseCount}}টি কেস পাওয়া গেছে। মশারি ব্যবহার করুন, জমা পানি সরান, জ্বরের জন্য চিকিৎসা নিন।`,
		Assamese: `🚨 ডেংগু প্ৰাদুৰ্ভাৱ সতৰ্কবাণী: {{.Location}} ত {{.CaseCount}}টা কেছ পোৱা গৈছে। মহজাল ব্যৱহাৰ কৰক, জমা পানী আঁতৰাওক, জ্বৰৰ বাবে চিকিৎসা লওক।`,
		Telugu:   `🚨 డెంగ్యూ వ్యాప్తి హెచ్చరిక: {{.Location}}లో {{.CaseCount}} కేసులు కనుగొనబడ్డాయి. దోమతెరలు వాడండి, నిలిచిన నీరు తొలగించండి, జ్వరానికి వైద్య సహాయం తీసుకోండి.`,
	},
	kindMalaria: {
		English:  `🦟 MALARIA OUTBREAK ALERT: {{.CaseCount}} cases in {{.Location}}. Sleep under treated nets, clear water logging, get tested for fever.`,
		Hindi:    `🦟 मलेरिया प्रकोप अलर्ट: {{.Location}} में {{.CaseCount}} मामले। उपचारित जाल के नीचे सोएं, पानी का जमाव साफ करें, बुखार की जांच कराएं।`,
		Bengali:  `🦟 ম্যালেরিয়া প্রাদুর্ভাব সতর্কতা: {{.Location}} এ {{.CaseCount}}টি কেস। চিকিৎসিত জালের নিচে ঘুমান, পানি জমা পরিষ্কার করুন, জ্বরের পরীক্ষা করান।`,
		Assamese: `🦟 মেলেৰিয়া প্ৰাদুৰ্ভাৱ সতৰ্কবাণী: {{.Location}} ত {{.CaseCount}}টা কেছ। চিকিৎসিত জালৰ তলত শুওক, পানী জমা পৰিষ্কাৰ কৰক, জ্বৰৰ পৰীক্ষা কৰাওক।`,
		Telugu:   `🦟 మలేరియా వ్యాప్తి హెచ్చరిక: {{.Location}}లో {{.CaseCount}} కేసులు. చికిత్సిత వలల కింద నిద్రించండి, నీరు జమ చేయకండి, జ్వరానికి పరీక్షలు చేయించుకోండి.`,
	},
	kindDiarrheal: {
		English:  `💧 DIARRHEA OUTBREAK ALERT: {{.CaseCount}} cases in {{.Location}}. Boil water before drinking, maintain hygiene, use ORS for dehydration.`,
		Hindi:    `💧 दस्त प्रकोप अलर्ट: {{.Location}} में {{.CaseCount}} मामले। पीने से पहले पानी उबालें, स्वच्छता बनाए रखें, निर्जलीकरण के लिए ORS का उपयोग करें।`,
		Bengali:  `💧 ডায়রিয়া প্রাদুর্ভাব সতর্কতা: {{.Location}} এ {{.CaseCount}}টি কেস। পানি ফুটিয়ে পান করুন, স্বাস্থ্যবিধি মেনে চলুন, পানিশূন্যতার জন্য ORS ব্যবহার করুন।`,
		Assamese: `💧 ডায়েৰিয়া প্ৰাদুৰ্ভাৱ সতৰ্কবাণী: {{.Location}} ত {{.CaseCount}}টা কেছ। পানী উতলাই খাওক, স্বাস্থ্যবিধি মানি চলক, পানীশূন্যতাৰ বাবে ORS ব্যৱহাৰ কৰক।`,
		Telugu:   `💧 అతిసార వ్యాప్తి హెచ్చరిక: {{.Location}}లో {{.CaseCount}} కేసులు. నీరు మరిగించి తాగండి, పరిశుభ్రత పాటించండి, నిర్జలీకరణకు ORS వాడండి.`,
	},
	kindOutbreak: {
		English:  `⚠️ HEALTH ALERT: Unusual increase in {{.Disease}} cases ({{.CaseCount}}) detected in {{.Location}}. Please take precautions and seek medical advice.`,
		Hindi:    `⚠️ स्वास्थ्य अलर्ट: {{.Location}} में {{.Disease}} के मामलों ({{.CaseCount}}) में असामान्य वृद्धि। कृपया सावधानी बरतें और चिकित्सा सलाह लें।`,
		Bengali:  `⚠️ স্বাস্থ্য সতর্কতা: {{.Location}} এ {{.Disease}} কেসের ({{.CaseCount}}) অস্বাভাবিক বৃদ্ধি। অনুগ্রহ করে সতর্কতা অবলম্বন করুন এবং চিকিৎসা পরামর্শ নিন।`,
		Assamese: `⚠️ স্বাস্থ্য সতৰ্কবাণী: {{.Location}} ত {{.Disease}} কেছৰ ({{.CaseCount}}) অস্বাভাৱিক বৃদ্ধি। অনুগ্ৰহ কৰি সতৰ্কতা অৱলম্বন কৰক আৰু চিকিৎসা পৰামৰ্শ লওক।`,
		Telugu:   `⚠️ ఆరోగ్య హెచ్చరిక: {{.Location}}లో {{.Disease}} కేసుల ({{.CaseCount}}) అసాధారణ పెరుగుదల. దయచేసి జాగ్రత్తలు తీసుకోండి మరియు వైద్య సలహా తీసుకోండి.`,
	},
	kindEscalation: {
		English: `{{if .Immediate}}🚑 URGENT{{else}}⚠️ ATTENTION{{end}}: patient in {{.Location}} needs {{.Level}} care. Symptoms: {{.Symptoms}}.{{if .Condition}} Possible {{.Condition}}.{{end}}{{if .PatientName}} Patient: {{.PatientName}}.{{end}}{{if .PatientPhone}} Contact: {{.PatientPhone}}.{{end}} Report {{.ReportID}}.`,
		Hindi:   `{{if .Immediate}}🚑 अत्यावश्यक{{else}}⚠️ ध्यान दें{{end}}: {{.Location}} में मरीज को {{.Level}} देखभाल चाहिए। लक्षण: {{.Symptoms}}।{{if .Condition}} संभावित {{.Condition}}।{{end}}{{if .PatientName}} मरीज: {{.PatientName}}।{{end}}{{if .PatientPhone}} संपर्क: {{.PatientPhone}}।{{end}} रिपोर्ट {{.ReportID}}।`,
	},
	kindWorkerResponse: {
		English: `Health worker {{.WorkerName}} replied: {{.Response}}{{if .Action}} Next step: {{.Action}}.{{end}}{{if .FollowUpRequired}} A follow-up visit is required.{{end}}`,
		Hindi:   `स्वास्थ्य कार्यकर्ता {{.WorkerName}} का जवाब: {{.Response}}{{if .Action}} अगला कदम: {{.Action}}।{{end}}{{if .FollowUpRequired}} फॉलो-अप आवश्यक है।{{end}}`,
	},
}
