package form

// TokenPlaceholder is substituted with the bot token by the backend when
// the bot starts.
const TokenPlaceholder = "SEU_TOKEN_AQUI"

// DefaultBotCode pre-fills the code tab for new bots.
const DefaultBotCode = `import telebot
from telebot import types

# Replace with your token
bot = telebot.TeleBot('` + TokenPlaceholder + `')

@bot.message_handler(commands=['start'])
def send_welcome(message):
    bot.reply_to(message, 'Hello! I am your bot!')

@bot.message_handler(func=lambda message: True)
def echo_all(message):
    bot.reply_to(message, message.text)

if __name__ == '__main__':
    bot.polling()
`
